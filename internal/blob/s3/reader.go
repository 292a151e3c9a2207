package s3blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// Reader lists and probes archive objects.
type Reader struct {
	client *s3.Client
	bucket string
}

// NewReader creates a Reader for the client's bucket.
func NewReader(c *Client) *Reader {
	return &Reader{client: c.S3(), bucket: c.Bucket()}
}

// List returns every archive under prefix, following continuation tokens.
func (r *Reader) List(ctx context.Context, prefix string) ([]domain.ArchiveFile, error) {
	var files []domain.ArchiveFile
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3blob: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			f, ok := parseArchiveKey(aws.ToString(obj.Key))
			if !ok {
				continue
			}
			f.Size = aws.ToInt64(obj.Size)
			if obj.LastModified != nil {
				f.UploadedAt = obj.LastModified.UTC()
			}
			files = append(files, f)
		}
	}
	return files, nil
}

// Exists reports whether an object is stored at key.
func (r *Reader) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3blob: head %s: %w", key, err)
}

// parseArchiveKey splits archive/<kind>/<YYYY-MM>[-N].jsonl. Other keys in
// the bucket are ignored.
func parseArchiveKey(key string) (domain.ArchiveFile, bool) {
	rest, ok := strings.CutPrefix(key, archiveRoot+"/")
	if !ok {
		return domain.ArchiveFile{}, false
	}
	kind, name, ok := strings.Cut(rest, "/")
	if !ok || path.Ext(name) != ".jsonl" {
		return domain.ArchiveFile{}, false
	}
	month := strings.TrimSuffix(name, ".jsonl")
	if len(month) < len("2006-01") {
		return domain.ArchiveFile{}, false
	}
	return domain.ArchiveFile{
		Kind:  domain.ArchiveKind(kind),
		Key:   key,
		Month: month[:len("2006-01")],
	}, true
}

// isNotFound matches NoSuchKey, the NotFound returned by HeadObject and bare
// 404 responses from S3-compatible providers.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}
	var status interface{ HTTPStatusCode() int }
	return errors.As(err, &status) && status.HTTPStatusCode() == http.StatusNotFound
}

var _ domain.BlobReader = (*Reader)(nil)
