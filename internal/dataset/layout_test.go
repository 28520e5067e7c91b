package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveBaseName(t *testing.T) {
	assert.Equal(t, "cows", ArchiveBaseName("cows.zip"))
	assert.Equal(t, "cows", ArchiveBaseName("exports/cows.tar.gz"))
	assert.Equal(t, "cows", ArchiveBaseName("cows"))
	assert.Equal(t, ".hidden", ArchiveBaseName(".hidden"))
}

func TestLabelFileName(t *testing.T) {
	assert.Equal(t, "img_001.txt", LabelFileName("img_001.jpg"))
	assert.Equal(t, "a.b.txt", LabelFileName("a.b.PNG"))
}

func TestIsImage(t *testing.T) {
	for _, name := range []string{"a.png", "a.jpg", "a.jpeg", "A.JPG", "b.Jpeg"} {
		assert.True(t, IsImage(name), name)
	}
	for _, name := range []string{"a.txt", "a.gif", "png", "a.png.bak"} {
		assert.False(t, IsImage(name), name)
	}
}

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/data", "")
	assert.Equal(t, DefaultRawDir, l.RawDir)

	p, err := l.ArchivePath("cows.zip")
	require.NoError(t, err)
	assert.Equal(t, "/data/cows.zip", p)

	p, err = l.ArchivePath("sub/../cows.zip")
	require.NoError(t, err)
	assert.Equal(t, "/data/cows.zip", p)

	_, err = l.ArchivePath("../etc/passwd")
	assert.Error(t, err)
	_, err = l.ArchivePath("")
	assert.Error(t, err)

	assert.Equal(t, "/data/dataset/cows", l.ExtractDir("/data/cows.zip"))
	assert.Equal(t, "/data/dataset/cows/obj_train_data", l.RawPath("/data/dataset/cows"))

	imgs, labels := SplitDirs("/data/dataset/cows", Valid)
	assert.Equal(t, "/data/dataset/cows/images/valid", imgs)
	assert.Equal(t, "/data/dataset/cows/labels/valid", labels)
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.jpg", "a.PNG", "b.txt", "d.jpeg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "e.jpg"), 0o755))

	images, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.PNG", "c.jpg", "d.jpeg"}, images)

	_, err = ListImages(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
