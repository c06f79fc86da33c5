package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// ProgressMsg carries the downloaded fraction (0..1) of the current file.
type ProgressMsg float64

type ProgressErrMsg struct{ Err error }

type Sender interface {
	Send(msg tea.Msg)
}

type progressWriter struct {
	total      int64
	downloaded int64
	onProgress func(float64)
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.downloaded += int64(len(p))
	if pw.total > 0 && pw.onProgress != nil {
		pw.onProgress(float64(pw.downloaded) / float64(pw.total))
	}
	return len(p), nil
}

// DownloadFile streams url into destination. A partially written file is removed on failure.
func DownloadFile(ctx context.Context, url string, destination string, client Doer, program Sender, fs afero.Fs) (returnErr error) {
	ctx, span := perf.StartSpan(ctx, "net.http.download",
		perf.WithAttributes(attribute.String("url", url), attribute.String("path", destination)),
	)
	defer func() { span.EndWithError(returnErr) }()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	response, err := client.Do(request)
	if err != nil {
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			return timeoutErr
		}
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil && returnErr == nil {
			returnErr = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("download request failed with status %d", response.StatusCode)
	}

	file, err := fs.Create(destination)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	pw := &progressWriter{
		total: response.ContentLength,
		onProgress: func(ratio float64) {
			if program != nil {
				program.Send(ProgressMsg(ratio))
			}
		},
	}

	written, copyErr := io.Copy(file, io.TeeReader(response.Body, pw))
	closeErr := file.Close()
	span.SetAttributes(attribute.Int64("bytes", written))

	if copyErr == nil && closeErr == nil {
		return nil
	}

	failure := fmt.Errorf("failed to write file: %w", errors.Join(copyErr, closeErr))
	if removeErr := fs.Remove(destination); removeErr != nil {
		failure = errors.Join(failure, fmt.Errorf("failed to remove partial file: %w", removeErr))
	}
	if program != nil {
		program.Send(ProgressErrMsg{Err: failure})
	}
	return failure
}
