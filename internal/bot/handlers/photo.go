package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-telegram/bot"
)

const photoDownloadTimeout = 30 * time.Second

// DownloadPhoto fetches a Telegram file. Files larger than maxBytes are rejected.
func DownloadPhoto(ctx context.Context, api API, client *http.Client, fileID string, maxBytes int64) (data []byte, err error) {
	if fileID == "" {
		return nil, fmt.Errorf("empty fileID provided for photo download")
	}
	if client == nil {
		client = http.DefaultClient
	}

	downloadCtx, cancel := context.WithTimeout(ctx, photoDownloadTimeout)
	defer cancel()

	fileObj, err := api.GetFile(downloadCtx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info from Telegram: %w", err)
	}
	if fileObj.FilePath == "" {
		return nil, fmt.Errorf("empty file path returned from Telegram for file ID %s", fileID)
	}
	if maxBytes > 0 && fileObj.FileSize > maxBytes {
		return nil, fmt.Errorf("file %s is %d bytes, limit is %d", fileID, fileObj.FileSize, maxBytes)
	}

	// The link embeds the bot token, so it is never logged or wrapped into errors.
	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, api.FileDownloadLink(fileObj), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, redactURLError(err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d downloading file %s", resp.StatusCode, fileID)
	}

	limit := maxBytes
	if limit <= 0 {
		limit = 10 * 1024 * 1024
	}
	data, err = io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file %s exceeds %d bytes", fileID, limit)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("received empty file data for %s", fileID)
	}
	return data, nil
}

// redactURLError drops the request URL, which carries the bot token.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
