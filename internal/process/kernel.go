package process

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
)

const (
	KernelName = "kernel"

	ActionExecute  = "org.openbravo.client.application.process.ExecuteProcessActionHandler"
	ActionDefaults = "org.openbravo.client.application.process.DefaultsProcessActionHandler"

	defaultButtonValue = "DONE"
)

// Kernel runs processes on the ERP through the kernel servlet.
type Kernel struct {
	erp *erp.Client
}

func NewKernel(ec *erp.Client) *Kernel { return &Kernel{erp: ec} }

func kernelPath() string { return "meta/forward/" + erp.KernelServlet }

func (k *Kernel) OnLoad(ctx context.Context, s domain.Session, def Definition, lc LoadContext) (Result, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("%w: process id", domain.ErrBadParams)
	}
	q := url.Values{"processId": {def.ID}, "_action": {ActionDefaults}}
	if lc.WindowID != "" {
		q.Set("windowId", lc.WindowID)
	}
	body := map[string]any{"tabId": lc.TabID, "selectedRecords": lc.SelectedRecords}
	return k.call(ctx, s, q, body, "process defaults")
}

func (k *Kernel) OnProcess(ctx context.Context, s domain.Session, def Definition, p ExecParams) (Result, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("%w: process id", domain.ErrBadParams)
	}
	action := def.JavaClassName
	if action == "" {
		action = ActionExecute
	}
	q := url.Values{"processId": {def.ID}, "_action": {action}}
	if p.WindowID != "" {
		q.Set("windowId", p.WindowID)
	}

	button := p.ButtonValue
	if button == nil {
		button = defaultButtonValue
	}
	params := p.Params
	if params == nil {
		params = map[string]any{}
	}
	recordIDs := p.RecordIDs
	if recordIDs == nil {
		recordIDs = []string{}
	}
	body := map[string]any{
		"recordIds":    recordIDs,
		"_buttonValue": button,
		"_params":      TransformDates(params),
		"_entityName":  p.EntityName,
		"windowId":     p.WindowID,
	}
	return k.call(ctx, s, q, body, "process execute")
}

func (k *Kernel) call(ctx context.Context, s domain.Session, q url.Values, body any, op string) (Result, error) {
	resp, err := k.erp.ForSession(s).Post(ctx, kernelPath(), body, erp.Query(q))
	if err != nil {
		return nil, err
	}
	if err := resp.Err(op); err != nil {
		return nil, err
	}
	if !resp.IsJSON() {
		return Result{"success": true, "message": string(resp.Body)}, nil
	}
	var out Result
	if err := resp.Decode(&out); err != nil {
		// arrays and scalars are wrapped
		return Result{"success": true, "data": resp.Data}, nil
	}
	return out, nil
}

var ddmmyyyy = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

// TransformDates rewrites dd-mm-yyyy strings to yyyy-mm-dd, recursively.
func TransformDates(v any) any {
	switch val := v.(type) {
	case string:
		return ddmmyyyy.ReplaceAllString(val, "$3-$2-$1")
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = TransformDates(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = TransformDates(item)
		}
		return out
	default:
		return v
	}
}
