package main

import (
	"fmt"
	"path/filepath"

	"github.com/dvloznov/dataset-loader/internal/gcsuploader"
	"github.com/spf13/cobra"
)

func (a *app) uploadCommand() *cobra.Command {
	var filePath, bucketName, objectName string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a dataset archive to GCS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bucketName == "" {
				bucketName = a.settings.GCS.Bucket
			}
			if bucketName == "" {
				return fmt.Errorf("--bucket is required (or set gcs.bucket)")
			}
			if objectName == "" {
				objectName = filepath.Base(filePath)
			}

			a.log.Info().
				Str("bucket", bucketName).
				Str("object", objectName).
				Str("file", filePath).
				Msg("Uploading archive to GCS")

			if err := gcsuploader.UploadFile(cmd.Context(), bucketName, objectName, filePath); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), gcsuploader.BuildGCSURI(bucketName, objectName))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&filePath, "file", "", "Path to the local archive (required)")
	flags.StringVar(&bucketName, "bucket", "", "GCS bucket name (default from config)")
	flags.StringVar(&objectName, "object", "", "GCS object name (defaults to the file name)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
