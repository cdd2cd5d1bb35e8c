package sources

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// ObjectStoreSource describes a single object in an S3-compatible bucket.
type ObjectStoreSource struct {
	Kind   FileKind
	Bucket string
	Key    string
	Region string
}

func (o ObjectStoreSource) Validate() error {
	if !o.Kind.IsValid() {
		return errors.NewConfigurationError("object store source: unsupported kind " + string(o.Kind))
	}
	if o.Bucket == "" || o.Key == "" {
		return errors.NewConfigurationError("object store source: bucket and key are required")
	}
	return nil
}

// Fetch downloads the object into a local temp file and returns a FileSource
// pointing at it. The caller is responsible for removing the temp file once
// validation for the run completes.
func (o ObjectStoreSource) Fetch(ctx context.Context) (FileSource, error) {
	if err := o.Validate(); err != nil {
		return FileSource{}, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(o.Region))
	if err != nil {
		return FileSource{}, errors.NewDataSourceError("failed to load AWS config", err)
	}
	client := s3.NewFromConfig(cfg)

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(o.Key),
	})
	if err != nil {
		return FileSource{}, errors.NewDataSourceError(
			fmt.Sprintf("failed to fetch s3://%s/%s", o.Bucket, o.Key), err)
	}
	defer out.Body.Close()

	tmp, err := os.CreateTemp("", "canonica-validate-*"+filepath.Ext(o.Key))
	if err != nil {
		return FileSource{}, errors.NewInternalError("failed to create temp file", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, out.Body); err != nil {
		return FileSource{}, errors.NewDataSourceError("failed to download object body", err)
	}

	return FileSource{Kind: o.Kind, FilePath: tmp.Name()}, nil
}
