package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
)

// GetDatasource forwards req to the ERP datasource servlet. SmartClient
// operations are sent as JSON when asJSON is set; everything else is
// form-encoded. Responses of entities enabled through
// WithDatasourceCaching are kept in the shared cache per caller.
func (c *Client) GetDatasource(ctx context.Context, s domain.Session, req domain.DatasourceRequest, asJSON bool) (json.RawMessage, error) {
	if req.Entity == "" || !domain.ValidEntity(req.Entity) {
		return nil, fmt.Errorf("%w: entity is required", domain.ErrBadParams)
	}
	s = c.session(s)

	smartClient := req.IsSmartClientPayload()
	var key string
	if c.shared != nil && c.entities[req.Entity] && !smartClient {
		raw, err := json.Marshal(req.Params)
		if err != nil {
			return nil, fmt.Errorf("%w: params: %v", domain.ErrBadParams, err)
		}
		key = domain.CacheKeyDatasource(domain.HashKey(s.Token, s.Role(), lang(s)), req.Entity, raw)
		if hit, err := c.shared.Get(ctx, key); err == nil && hit != nil {
			return hit, nil
		} else if err != nil {
			c.log.Warn("datasource cache read failed", zap.String("entity", req.Entity), zap.Error(err))
		}
	}

	var body any = EncodeDatasourceParams(req.Params)
	if asJSON && smartClient {
		body = req.Params
	}
	resp, err := c.forSession(s).Post(ctx, erp.DatasourceServlet+"/"+req.Entity, body)
	if err != nil {
		return nil, err
	}
	if err := resp.Err("datasource " + req.Entity); err != nil {
		return nil, err
	}
	if !resp.IsJSON() {
		return nil, fmt.Errorf("%w: datasource %s returned non-JSON", domain.ErrUpstream, req.Entity)
	}

	if key != "" {
		ttl := int(c.dsTTL.Seconds())
		if ttl <= 0 {
			ttl = 60
		}
		if err := c.shared.Set(ctx, key, resp.Data, ttl); err != nil {
			c.log.Warn("datasource cache write failed", zap.String("entity", req.Entity), zap.Error(err))
		}
	}
	return resp.Data, nil
}

// EncodeDatasourceParams flattens params into the form the datasource
// servlet reads: arrays become repeated keys, except criteria which is
// sent as a single JSON array string.
func EncodeDatasourceParams(params map[string]any) url.Values {
	form := url.Values{}
	for k, v := range params {
		switch val := v.(type) {
		case nil:
		case []any:
			if k == "criteria" {
				parts := make([]string, 0, len(val))
				for _, item := range val {
					parts = append(parts, criterionString(item))
				}
				form.Set(k, "["+strings.Join(parts, ",")+"]")
				continue
			}
			for _, item := range val {
				form.Add(k, scalarString(item))
			}
		case []string:
			if k == "criteria" {
				form.Set(k, "["+strings.Join(val, ",")+"]")
				continue
			}
			for _, item := range val {
				form.Add(k, item)
			}
		default:
			form.Add(k, scalarString(val))
		}
	}
	return form
}

// criterionString keeps string criteria verbatim (they are already JSON)
// and encodes structured ones.
func criterionString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
