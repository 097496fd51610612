// Package tneapi talks to the delivery backend over HTTP/JSON.
package tneapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/roster"
	"github.com/tneregistro/portal/core/stats"
)

// Operation names, as reported in metrics.
const (
	OpLogin      = "login"
	OpStudents   = "list_students"
	OpDeliver    = "register_delivery"
	OpStatistics = "statistics"
	OpReport     = "report"
)

const (
	pathLogin    = "/login"
	pathStudents = "/alumnos"
	pathDeliver  = "/entregar"
	pathStats    = "/dashboard/stats"
	pathReport   = "/download-excel"

	// DefaultReportFilename is used when the backend does not name the file.
	DefaultReportFilename = "Reporte_TNE_Completo.xlsx"
	reportContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	// ErrStatusNotOK: the statistics body did not carry status "ok".
	ErrStatusNotOK = stats.ErrStatusNotOK
	// ErrMissingRole: the login answer was valid JSON but named no role.
	ErrMissingRole = errors.New("login: missing role")
)

type (
	LoginResult struct {
		Status string `json:"status"`
		Role   string `json:"role"`
	}

	// Report is the Excel export of the roster.
	Report struct {
		Filename    string
		ContentType string
		Data        []byte
	}

	deliveryBody struct {
		Folio       *string `json:"folio"`
		RUT         *string `json:"rut"`
		Responsable *string `json:"responsable"`
	}

	deliveryResp struct {
		Status  string               `json:"status"`
		Updated roster.StudentRecord `json:"updated"`
	}

	studentsResp struct {
		Rows []roster.StudentRecord `json:"rows"`
	}

	errorResp struct {
		Detail json.RawMessage `json:"detail"`
	}
)

type Client struct {
	baseURL        string
	http           *http.Client
	loginTimeout   time.Duration
	requestTimeout time.Duration
	metrics        *Metrics
}

var (
	_ roster.Client = (*Client)(nil)
	_ stats.Client  = (*Client)(nil)
)

// NewClient returns a Client for conf.Backend. metrics may be nil.
func NewClient(conf *core.Config, metrics *Metrics) *Client {
	return &Client{
		baseURL:        conf.Backend.BaseURL,
		http:           &http.Client{},
		loginTimeout:   conf.Backend.LoginTimeout,
		requestTimeout: conf.Backend.RequestTimeout,
		metrics:        metrics,
	}
}

// Login asks the backend for the role of email. It gives up after the login timeout.
func (c *Client) Login(ctx context.Context, email string) (res LoginResult, err error) {
	defer c.metrics.observe(OpLogin, time.Now(), &err)

	body := map[string]string{"email": email}
	if err = c.doJSON(ctx, c.loginTimeout, http.MethodPost, pathLogin, body, &res); err != nil {
		return LoginResult{}, err
	}
	if res.Role == "" {
		return LoginResult{}, ErrMissingRole
	}
	return res, nil
}

// ListStudents returns every roster row. A body without `rows` is an empty roster.
func (c *Client) ListStudents(ctx context.Context) (rows []roster.StudentRecord, err error) {
	defer c.metrics.observe(OpStudents, time.Now(), &err)

	var res studentsResp
	if err = c.doJSON(ctx, c.requestTimeout, http.MethodGet, pathStudents, nil, &res); err != nil {
		return nil, err
	}
	if res.Rows == nil {
		return []roster.StudentRecord{}, nil
	}
	return res.Rows, nil
}

// RegisterDelivery marks the student identified by folio (preferred) or rut as delivered by responsable.
// Empty values are sent as null.
func (c *Client) RegisterDelivery(ctx context.Context, folio, rut, responsable string) (updated roster.StudentRecord, err error) {
	defer c.metrics.observe(OpDeliver, time.Now(), &err)

	body := deliveryBody{
		Folio:       nullable(folio),
		RUT:         nullable(rut),
		Responsable: nullable(responsable),
	}
	var res deliveryResp
	if err = c.doJSON(ctx, c.requestTimeout, http.MethodPost, pathDeliver, body, &res); err != nil {
		return roster.StudentRecord{}, err
	}
	return res.Updated, nil
}

func (c *Client) GetStatistics(ctx context.Context) (snap stats.Snapshot, err error) {
	defer c.metrics.observe(OpStatistics, time.Now(), &err)

	if err = c.doJSON(ctx, c.requestTimeout, http.MethodGet, pathStats, nil, &snap); err != nil {
		return stats.Snapshot{}, err
	}
	if snap.Status != "ok" {
		return stats.Snapshot{}, ErrStatusNotOK
	}
	return snap, nil
}

// DownloadReport fetches the Excel export.
func (c *Client) DownloadReport(ctx context.Context) (rep *Report, err error) {
	defer c.metrics.observe(OpReport, time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.send(ctx, http.MethodGet, pathReport, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(core.ErrConnection, "reading report: %v", err)
	}

	rep = &Report{
		Filename:    DefaultReportFilename,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}
	if rep.ContentType == "" {
		rep.ContentType = reportContentType
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		rep.Filename = params["filename"]
	}
	return rep, nil
}

// doJSON sends in (if any) as JSON and decodes a 2xx answer into out.
func (c *Client) doJSON(ctx context.Context, timeout time.Duration, method, path string, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "encoding %s body", path)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(core.ErrConnection, "reading %s: %v", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(core.ErrMalformedResponse, "decoding %s: %v", path, err)
	}
	return nil
}

// send performs the request. Transport failures become core.ErrConnection and
// non-2xx answers a *core.RejectedError; on success the caller closes the body.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s request", path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(core.ErrConnection, "%s %s: %v", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, rejection(resp)
	}
	return resp, nil
}

// rejection reads the `detail` of an error body. Non-string details are ignored.
func rejection(resp *http.Response) error {
	rej := &core.RejectedError{Status: resp.StatusCode}
	var res errorResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&res); err == nil {
		var detail string
		if json.Unmarshal(res.Detail, &detail) == nil {
			rej.Detail = detail
		}
	}
	return rej
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
