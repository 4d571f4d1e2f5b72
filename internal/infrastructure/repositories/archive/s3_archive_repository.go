package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

const (
	// DestinationS3 names the S3 archive destination.
	DestinationS3 = "s3"

	archiveContentType = "application/gzip"
)

// Uploader is the part of the S3 upload manager the archive needs.
type Uploader interface {
	Upload(
		ctx context.Context,
		input *s3.PutObjectInput,
		opts ...func(*manager.Uploader),
	) (*manager.UploadOutput, error)
}

// S3ArchiveRepository packs the backup directory into a tar.gz and uploads it to S3.
type S3ArchiveRepository struct {
	uploader Uploader
	bucket   string
	prefix   string
}

// NewS3ArchiveRepository creates an archive publisher around an uploader.
func NewS3ArchiveRepository(uploader Uploader, bucket, prefix string) *S3ArchiveRepository {
	return &S3ArchiveRepository{uploader: uploader, bucket: bucket, prefix: prefix}
}

// NewS3ArchiveRepositoryFromSettings builds the S3 client from the archive settings.
// Static keys are used when configured, the default AWS chain otherwise.
func NewS3ArchiveRepositoryFromSettings(
	ctx context.Context,
	cfg entities.ArchiveConfig,
) (repositories.ArchiveRepository, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3ArchiveRepository(manager.NewUploader(client), cfg.S3Bucket, cfg.S3Prefix), nil
}

// Publish packs dir, skipping the local state directory, and uploads it under
// the configured prefix. The returned location is the S3 URL of the object.
func (r *S3ArchiveRepository) Publish(ctx context.Context, dir, key string) (string, error) {
	tmp, err := os.CreateTemp("", "snipbackup-*.tar.gz")
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err = Pack(dir, tmp); err != nil {
		return "", err
	}
	if _, err = tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind archive: %w", err)
	}

	objectKey := key
	if r.prefix != "" {
		objectKey = path.Join(r.prefix, key)
	}

	logger.Infof("Uploading archive to s3://%s/%s...", r.bucket, objectKey)
	out, err := r.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(objectKey),
		Body:        tmp,
		ContentType: aws.String(archiveContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", r.bucket, objectKey)
	if out != nil && out.Location != "" {
		location = out.Location
	}
	return location, nil
}

// Pack writes dir as a gzip-compressed tarball to w. The local state
// directory is left out; the .git directory is kept so history survives.
func Pack(dir string, w io.Writer) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == entities.StateDirName || strings.HasPrefix(rel, entities.StateDirName+"/") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return addEntry(tw, p, rel, d)
	})
	if walkErr != nil {
		return fmt.Errorf("failed to pack %s: %w", dir, walkErr)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

func addEntry(tw *tar.Writer, p, rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		logger.Debugf("Skipping symlink in archive: %s", rel)
		return nil
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = rel
	if d.IsDir() {
		header.Name += "/"
	}
	if err = tw.WriteHeader(header); err != nil {
		return err
	}
	if d.IsDir() || !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to copy %s: %w", rel, err)
	}
	return nil
}
