package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/diewo77/ecotrim/httpx"
	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/logger"
	"github.com/diewo77/ecotrim/internal/middleware"
	"github.com/diewo77/ecotrim/internal/repository"
	"github.com/diewo77/ecotrim/internal/settings"
	"github.com/diewo77/ecotrim/view"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
	maxBodyBytes    = 1 << 20
)

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.ZeroEmpty(true)
	d.RegisterConverter(decimal.Decimal{}, func(s string) reflect.Value {
		s = strings.TrimSpace(s)
		if s == "" {
			return reflect.ValueOf(decimal.Zero)
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(v)
	})
	return d
}

// decode reads a JSON body or a form into dst. Fields that cannot be
// converted come back as a validation error keyed by their form name.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if httpx.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return apperr.NewValidation(map[string]string{"_": "invalid_json"})
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return apperr.NewValidation(map[string]string{"_": "invalid_form"})
	}
	err := formDecoder.Decode(dst, r.PostForm)
	if err == nil {
		return nil
	}
	v := map[string]string{}
	var multi schema.MultiError
	if errors.As(err, &multi) {
		for key := range multi {
			v[key] = "invalid"
		}
	} else {
		v["_"] = "invalid_form"
	}
	return apperr.NewValidation(v)
}

func pathID(r *http.Request, resource string) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.NotFound(resource, raw)
	}
	return uint(id), nil
}

type page struct {
	Page, Limit, Offset int
}

func pageFrom(r *http.Request) page {
	p := page{Page: 1, Limit: defaultPageSize}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= maxPageSize {
		p.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 1 {
		p.Page = v
	}
	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// into adds pagination keys for the "pager" partial.
func (p page) into(data map[string]any, total int64) {
	data["Page"] = p.Page
	data["Limit"] = p.Limit
	data["Total"] = total
	data["HasPrev"] = p.Page > 1
	data["HasNext"] = int64(p.Offset+p.Limit) < total
	data["PrevPage"] = p.Page - 1
	data["NextPage"] = p.Page + 1
}

// periodFrom reads the optional from/to query dates.
func periodFrom(r *http.Request) (repository.Period, error) {
	var p repository.Period
	v := map[string]string{}
	for key, dst := range map[string]*time.Time{"from": &p.From, "to": &p.To} {
		raw := strings.TrimSpace(r.URL.Query().Get(key))
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			v[key] = "invalid"
			continue
		}
		*dst = t
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
		v["to"] = "out_of_range"
	}
	return p, apperr.NewValidation(v)
}

// renderer writes HTML pages with the shared layout data.
type renderer struct {
	settings *settings.Provider
}

func (rd renderer) html(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if rd.settings != nil {
		s := rd.settings.Current()
		data["Settings"] = &s
	}
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = middleware.TakeFlash(w, r)
	}
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		logger.FromContext(r.Context()).Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// fail answers with the status and code err maps to, as JSON or as an error page.
func (rd renderer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
	}
	if httpx.WantsJSON(r) {
		httpx.WriteError(w, err)
		return
	}
	rd.html(w, r, status, "error.html", map[string]any{"Status": status, "Code": apperr.Code(err)})
}

// violations returns the field map of a validation error, or nil.
func violations(err error) map[string]string {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
