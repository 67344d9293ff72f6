package slavart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/sadl/errutil"
	"github.com/xeptore/sadl/httputil"
	"github.com/xeptore/sadl/must"
)

type searchResponse struct {
	Query  string `json:"query"`
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

// Search runs query against the search endpoint. Failures are ErrNetwork or ErrDecode
// joined with a flaw; context errors are returned bare.
func (c *Client) Search(ctx context.Context, query string) (res *SearchResult, err error) {
	reqURL, err := url.Parse(c.searchURL)
	if nil != err {
		flawP := flaw.P{"url": c.searchURL, "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to parse search url: %v", err)).Append(flawP)
	}
	params := reqURL.Query()
	params.Set("q", query)
	reqURL.RawQuery = params.Encode()

	reqURLStr := reqURL.String()
	flawP := flaw.P{"url": reqURLStr, "query": query}
	logger := c.logger.With().Str("module", "search").Str("url", reqURLStr).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURLStr, nil)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, flaw.From(fmt.Errorf("failed to create search request: %v", err)).Append(flawP)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	logger.Debug().Msg("Sending search request")
	resp, err := c.search.Do(req)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, errors.Join(ErrNetwork, flaw.From(fmt.Errorf("failed to send search request: %v", err)).Append(flawP))
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			flawP["err_debug_tree"] = errutil.Tree(closeErr).FlawP()
			err = errutil.JoinClose(err, flaw.From(fmt.Errorf("failed to close search response body: %v", closeErr)).Append(flawP))
		}
	}()
	flawP["response"] = errutil.HTTPResponseFlawPayload(resp)

	if code := resp.StatusCode; !httputil.IsSuccess(code) {
		respBytes, err := httputil.ReadOptionalResponseBody(ctx, resp, errorBodyLimit)
		if nil != err {
			if errutil.IsContext(ctx) {
				return nil, err
			}
			return nil, errors.Join(ErrNetwork, readFailure(err, flawP))
		}
		flawP["response_body"] = string(respBytes)
		return nil, errors.Join(ErrNetwork, flaw.From(fmt.Errorf("unexpected search response status code: %d", code)).Append(flawP))
	}

	respBytes, err := httputil.ReadResponseBody(ctx, resp)
	if nil != err {
		switch {
		case errutil.IsContext(ctx):
			return nil, err
		case errors.Is(err, httputil.ErrEmptyBody):
			return nil, errors.Join(ErrDecode, flaw.From(err).Append(flawP))
		default:
			return nil, errors.Join(ErrNetwork, readFailure(err, flawP))
		}
	}

	if err := checkSearchResponse(respBytes); nil != err {
		flawP["response_body"] = string(respBytes)
		return nil, errors.Join(ErrDecode, flaw.From(fmt.Errorf("unexpected search response body: %v", err)).Append(flawP))
	}

	var body searchResponse
	if err := json.Unmarshal(respBytes, &body); nil != err {
		flawP["response_body"] = string(respBytes)
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, errors.Join(ErrDecode, flaw.From(fmt.Errorf("failed to decode search response body: %v", err)).Append(flawP))
	}

	logger.Debug().Int("tracks", len(body.Tracks.Items)).Msg("Search completed")
	return &SearchResult{Query: body.Query, Tracks: body.Tracks.Items}, nil
}

// readFailure attaches flawP to a response body read failure, which is either a flaw
// or a bare deadline error.
func readFailure(err error, flawP flaw.P) error {
	if errutil.IsFlaw(err) {
		return must.BeFlaw(err).Append(flawP)
	}
	flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
	return flaw.From(fmt.Errorf("failed to read response body: %v", err)).Append(flawP)
}

var (
	errNotJSON       = errors.New("not a json document")
	errMissingQuery  = errors.New("query is not a string")
	errMissingItems  = errors.New("tracks.items is not an array")
	errMalformedItem = errors.New("malformed track item")
)

// checkSearchResponse verifies the fields the decoder relies on, since absent fields
// would otherwise decode silently to zero values.
func checkSearchResponse(b []byte) error {
	if !gjson.ValidBytes(b) {
		return errNotJSON
	}
	if gjson.GetBytes(b, "query").Type != gjson.String {
		return errMissingQuery
	}
	items := gjson.GetBytes(b, "tracks.items")
	if !items.IsArray() {
		return errMissingItems
	}
	var (
		itemErr error
		idx     int
	)
	items.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() ||
			item.Get("id").Type != gjson.Number ||
			item.Get("title").Type != gjson.String ||
			item.Get("isrc").Type != gjson.String ||
			!item.Get("performer").IsObject() ||
			item.Get("performer.name").Type != gjson.String ||
			item.Get("performer.id").Type != gjson.Number {
			itemErr = fmt.Errorf("%w at index %d", errMalformedItem, idx)
			return false
		}
		idx++
		return true
	})
	return itemErr
}
