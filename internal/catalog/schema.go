package catalog

// Column names of the annotation table.
const (
	ColumnImagePath = "image_path"
	ColumnClassID   = "class_id"
	ColumnXCenter   = "x_center"
	ColumnYCenter   = "y_center"
	ColumnWidth     = "width"
	ColumnHeight    = "height"
	ColumnDirPath   = "dir_path"
)

// AnnotationColumns returns the fixed seven-column schema of an ingested
// object-detection dataset. A fresh slice is returned on every call.
func AnnotationColumns() []ColumnDefinition {
	return []ColumnDefinition{
		{Name: ColumnImagePath, Type: ColumnTypeText},
		{Name: ColumnClassID, Type: ColumnTypeInteger},
		{Name: ColumnXCenter, Type: ColumnTypeFloat},
		{Name: ColumnYCenter, Type: ColumnTypeFloat},
		{Name: ColumnWidth, Type: ColumnTypeFloat},
		{Name: ColumnHeight, Type: ColumnTypeFloat},
		{Name: ColumnDirPath, Type: ColumnTypeText},
	}
}
