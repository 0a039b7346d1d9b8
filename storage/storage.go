package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// ReportStore хранит готовые CSV-отчёты прогонов.
type ReportStore interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	PublicURL(key string) string
}

// ReportKey возвращает ключ объекта для отчёта прогона.
func ReportKey(runID int) string {
	return fmt.Sprintf("forecasts/%d/report.csv", runID)
}

// JoinPublicURL склеивает публичный адрес бакета и ключ объекта.
func JoinPublicURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}
	ref, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
