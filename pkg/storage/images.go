package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultAcceptedMIME = "image/webp"
	DefaultMaxBytes     = 5 * 1024 * 1024
)

var extensions = map[string]string{
	"image/webp": ".webp",
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/avif": ".avif",
}

// File is an uploaded image as received from a client
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageOptions constrains accepted uploads
type ImageOptions struct {
	AcceptedMIME string
	MaxBytes     int64
}

// Images uploads and deletes entity images with the upload rules applied
// before any storage call.
type Images struct {
	store  Bucket
	opts   ImageOptions
	now    func() time.Time
	logger logging.Logger
}

// NewImages creates an uploader; zero options fall back to WebP and 5 MiB
func NewImages(store Bucket, opts ImageOptions, logger logging.Logger) *Images {
	if opts.AcceptedMIME == "" {
		opts.AcceptedMIME = DefaultAcceptedMIME
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Images{store: store, opts: opts, now: time.Now, logger: logger}
}

// WithClock replaces the clock used to timestamp object names
func (i *Images) WithClock(now func() time.Time) *Images {
	i.now = now
	return i
}

// Upload stores file in bucket under a name derived from entityName and
// returns its public URL. Every failure is an apperror of kind Upload.
func (i *Images) Upload(ctx context.Context, bucket string, file *File, entityName string) (string, error) {
	if err := i.Check(file); err != nil {
		return "", err
	}

	name := ObjectName(entityName, i.now(), extensionFor(i.opts.AcceptedMIME))
	fields := map[string]interface{}{
		"bucket": bucket,
		"object": name,
		"size":   humanize.IBytes(uint64(file.Size)),
	}

	if err := i.store.Put(ctx, bucket, name, file.Body, file.Size, file.ContentType); err != nil {
		i.logger.Error("Image upload failed", err, fields)
		return "", uploadError(err)
	}

	publicURL, err := i.store.PublicURL(bucket, name)
	if err != nil || publicURL == "" {
		i.logger.Error("Failed to resolve public URL", err, fields)
		if rmErr := i.store.Remove(ctx, bucket, name); rmErr != nil {
			i.logger.Warn("Failed to remove unreachable image", map[string]interface{}{"object": name, "error": rmErr.Error()})
		}
		return "", apperror.Wrap(apperror.KindUpload, err, "Impossible d'obtenir l'URL publique de l'image")
	}

	i.logger.Info("Image uploaded", fields)
	return publicURL, nil
}

// Check applies the format and size rules without touching the store
func (i *Images) Check(file *File) error {
	if file == nil {
		return apperror.New(apperror.KindUpload, "Aucun fichier image fourni")
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0]))
	if contentType != i.opts.AcceptedMIME {
		return apperror.Newf(apperror.KindUpload,
			"Format d'image non supporté (%s) : seul le format %s est accepté",
			displayType(contentType), formatLabel(i.opts.AcceptedMIME))
	}
	if file.Size > i.opts.MaxBytes {
		return OversizeError(file.Size, i.opts.MaxBytes)
	}
	return nil
}

// Delete removes the object referenced by publicURL. Failures are logged and
// never returned: a missing image must not block a row operation.
func (i *Images) Delete(ctx context.Context, bucket, publicURL string) {
	name := ObjectKey(publicURL)
	if name == "" {
		i.logger.Warn("Cannot derive object name from image URL", map[string]interface{}{"bucket": bucket, "url": publicURL})
		return
	}
	if err := i.store.Remove(ctx, bucket, name); err != nil {
		i.logger.Warn("Failed to delete image", map[string]interface{}{
			"bucket": bucket,
			"object": name,
			"error":  err.Error(),
		})
		return
	}
	i.logger.Info("Image deleted", map[string]interface{}{"bucket": bucket, "object": name})
}

// ObjectKey returns the last path segment of a public URL
func ObjectKey(publicURL string) string {
	raw := strings.TrimSpace(publicURL)
	if raw == "" {
		return ""
	}
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	base := path.Base(p)
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// ObjectName builds "<sanitized name>_<unix millis><ext>"
func ObjectName(entityName string, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%d%s", SanitizeName(entityName), at.UnixMilli(), ext)
}

// SanitizeName folds accents, turns whitespace runs into underscores and
// drops everything outside [A-Za-z0-9_]
func SanitizeName(name string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for idx, word := range strings.Fields(folded) {
		if idx > 0 {
			b.WriteByte('_')
		}
		for _, r := range word {
			if r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
				b.WriteRune(r)
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "image"
	}
	return out
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, ErrObjectExists):
		return apperror.Wrap(apperror.KindUpload, err, "Une image portant ce nom existe déjà, veuillez réessayer")
	case errors.Is(err, ErrQuotaExceeded):
		return apperror.Wrap(apperror.KindUpload, err, "Quota de stockage dépassé, impossible d'enregistrer l'image")
	case errors.Is(err, ErrPermissionDenied):
		return apperror.Wrap(apperror.KindUpload, err, "Permission refusée lors de l'envoi de l'image")
	default:
		return apperror.Wrap(apperror.KindUpload, err, "Échec de l'envoi de l'image, vérifiez votre connexion et réessayez")
	}
}

// OversizeError reports an image of size bytes over the max limit
func OversizeError(size, max int64) error {
	return apperror.Newf(apperror.KindUpload,
		"L'image est trop volumineuse (%.2f Mo) : la taille maximale est de %.2f Mo",
		megabytes(size), megabytes(max))
}

func megabytes(size int64) float64 {
	return float64(size) / (1024 * 1024)
}

func extensionFor(mime string) string {
	if ext, ok := extensions[mime]; ok {
		return ext
	}
	return ""
}

func formatLabel(mime string) string {
	return strings.ToUpper(strings.TrimPrefix(extensionFor(mime), "."))
}

func displayType(contentType string) string {
	if contentType == "" {
		return "inconnu"
	}
	return contentType
}
