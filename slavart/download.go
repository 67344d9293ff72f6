package slavart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/sadl/errutil"
	"github.com/xeptore/sadl/httputil"
	"github.com/xeptore/sadl/progress"
)

const chunkSize = 32 << 10

// TrackURL returns the download endpoint url of track id.
func (c *Client) TrackURL(id int64) (string, error) {
	reqURL, err := url.Parse(c.downloadURL)
	if nil != err {
		flawP := flaw.P{"url": c.downloadURL, "err_debug_tree": errutil.Tree(err).FlawP()}
		return "", flaw.From(fmt.Errorf("failed to parse download url: %v", err)).Append(flawP)
	}
	params := reqURL.Query()
	params.Set("id", strconv.FormatInt(id, 10))
	reqURL.RawQuery = params.Encode()
	return reqURL.String(), nil
}

// FetchTrack makes a single attempt at downloading track id into filePath. The file is
// created or truncated once the response headers are accepted, and every received
// byte is written to it. onProgress, when non-nil, is called after each chunk with a
// done count that never exceeds the declared content length.
func (c *Client) FetchTrack(ctx context.Context, id int64, filePath string, onProgress progress.Func) (err error) {
	reqURL, err := c.TrackURL(id)
	if nil != err {
		return err
	}
	flawP := flaw.P{"url": reqURL, "track_id": id, "file_path": filePath}
	logger := c.logger.With().Str("module", "download").Int64("track_id", id).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return flaw.From(fmt.Errorf("failed to create download request: %v", err)).Append(flawP)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	logger.Debug().Str("url", reqURL).Msg("Sending download request")
	resp, err := c.download.Do(req)
	if nil != err {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return errors.Join(ErrNetwork, flaw.From(fmt.Errorf("failed to send download request: %v", err)).Append(flawP))
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			flawP["err_debug_tree"] = errutil.Tree(closeErr).FlawP()
			err = errutil.JoinClose(err, flaw.From(fmt.Errorf("failed to close download response body: %v", closeErr)).Append(flawP))
		}
	}()
	flawP["response"] = errutil.HTTPResponseFlawPayload(resp)

	if code := resp.StatusCode; !httputil.IsSuccess(code) {
		respBytes, err := httputil.ReadOptionalResponseBody(ctx, resp, errorBodyLimit)
		if nil != err {
			if errutil.IsContext(ctx) {
				return err
			}
			return errors.Join(ErrNetwork, readFailure(err, flawP))
		}
		flawP["response_body"] = string(respBytes)
		return errors.Join(ErrNetwork, flaw.From(fmt.Errorf("unexpected download response status code: %d", code)).Append(flawP))
	}

	total := resp.ContentLength
	if total < 0 {
		return errors.Join(ErrMissingContentLength, flaw.From(fmt.Errorf("failed to get content length from %s", reqURL)).Append(flawP))
	}
	flawP["content_length"] = total

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o0644)
	if nil != err {
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return errors.Join(ErrIO, flaw.From(fmt.Errorf("failed to create track file: %v", err)).Append(flawP))
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			flawP["err_debug_tree"] = errutil.Tree(closeErr).FlawP()
			closeErr = flaw.From(fmt.Errorf("failed to close track file: %v", closeErr)).Append(flawP)
			err = errutil.JoinClose(err, errors.Join(ErrIO, closeErr))
		}
	}()

	var (
		buf      = make([]byte, chunkSize)
		received int64
		reported int64
	)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); nil != err {
				flawP["received"] = received
				flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
				return errors.Join(ErrIO, flaw.From(fmt.Errorf("failed to write track file: %v", err)).Append(flawP))
			}
			received += int64(n)
			reported = min(received, total)
			if nil != onProgress {
				onProgress(progress.Stat{Done: reported, Total: total, Elapsed: time.Since(start)})
			}
		}
		if nil != readErr {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if errutil.IsContext(ctx) {
				return ctx.Err()
			}
			flawP["received"] = received
			flawP["err_debug_tree"] = errutil.Tree(readErr).FlawP()
			return errors.Join(ErrNetwork, flaw.From(fmt.Errorf("failed to read download response body: %v", readErr)).Append(flawP))
		}
	}

	if err := f.Sync(); nil != err {
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return errors.Join(ErrIO, flaw.From(fmt.Errorf("failed to sync track file: %v", err)).Append(flawP))
	}

	if received > total {
		logger.Warn().Int64("received", received).Int64("content_length", total).Msg("Server sent more bytes than declared")
	}
	logger.Debug().Int64("received", received).Dur("elapsed", time.Since(start)).Msg("Track downloaded")
	return nil
}
