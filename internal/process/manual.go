package process

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
)

//go:embed definitions.yaml
var defaultDefinitions []byte

// ManualName is the registry name of the classic popup process.
const ManualName = "manual"

// ManualAction configures one button that opens a classic popup.
type ManualAction struct {
	Name                 string            `yaml:"name" json:"name"`
	Action               string            `yaml:"action" json:"action"`
	Command              string            `yaml:"command" json:"command"`
	InpKeyColumnID       string            `yaml:"inpkeyColumnId" json:"inpkeyColumnId"`
	KeyColumnName        string            `yaml:"keyColumnName" json:"keyColumnName"`
	Posted               bool              `yaml:"posted" json:"posted,omitempty"`
	AdditionalParameters map[string]string `yaml:"additionalParameters" json:"additionalParameters,omitempty"`
}

type catalogFile struct {
	Actions map[string]ManualAction `yaml:"actions"`
}

// Catalog holds the manual actions: the embedded defaults overlaid with an
// optional override file.
type Catalog struct {
	mu      sync.RWMutex
	actions map[string]ManualAction
	log     *zap.Logger
}

// NewCatalog loads the embedded defaults.
func NewCatalog(log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Catalog{log: log}
	actions, err := parseCatalog(defaultDefinitions)
	if err != nil {
		return nil, fmt.Errorf("embedded definitions: %w", err)
	}
	c.actions = actions
	return c, nil
}

func parseCatalog(b []byte) (map[string]ManualAction, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Actions == nil {
		f.Actions = map[string]ManualAction{}
	}
	for id, a := range f.Actions {
		if a.Command == "" {
			return nil, fmt.Errorf("action %s: command is required", id)
		}
	}
	return f.Actions, nil
}

// LoadFile replaces the catalog with the embedded defaults overlaid by the
// actions in path. A broken file leaves the current catalog untouched.
func (c *Catalog) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	overrides, err := parseCatalog(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	merged, _ := parseCatalog(defaultDefinitions)
	for id, a := range overrides {
		merged[id] = a
	}
	c.mu.Lock()
	c.actions = merged
	c.mu.Unlock()
	c.log.Info("manual process definitions loaded", zap.String("path", path), zap.Int("actions", len(merged)))
	return nil
}

func (c *Catalog) Get(buttonID string) (ManualAction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.actions[buttonID]
	return a, ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.actions)
}

// ParamsInput is the record context a popup is opened for.
type ParamsInput struct {
	Record   map[string]any
	RecordID string
	WindowID string
	TabID    string
	TableID  string
	Token    string
}

// Record keys tried, in order, for each popup parameter.
var (
	docStatusKeys  = []string{"documentStatus", "docstatus", "docStatus"}
	processingKeys = []string{"processing", "processNow"}
	clientKeys     = []string{"client", "adClientId", "AD_Client_ID"}
	orgKeys        = []string{"organization", "adOrgId", "AD_Org_ID"}
	bpartnerKeys   = []string{"businessPartner", "cBpartnerId", "C_BPartner_ID"}
	postedKeys     = []string{"posted"}
)

// Params builds the classic popup parameters of buttonID.
func (c *Catalog) Params(buttonID string, in ParamsInput) (url.Values, error) {
	a, ok := c.Get(buttonID)
	if !ok {
		return nil, fmt.Errorf("%w: no manual action for button %s", domain.ErrNotFound, buttonID)
	}

	p := url.Values{}
	p.Add("IsPopUpCall", "1")
	p.Add("Command", a.Command)
	p.Add("inpcOrderId", in.RecordID)
	p.Add("inpKey", in.RecordID)
	p.Add("inpWindowId", in.WindowID)
	p.Add("inpwindowId", in.WindowID)
	p.Add("inpTabId", in.TabID)
	p.Add("inpTableId", in.TableID)
	p.Add("inpcBpartnerId", extract(in.Record, bpartnerKeys, ""))
	p.Add("inpadClientId", extract(in.Record, clientKeys, "0"))
	p.Add("inpadOrgId", extract(in.Record, orgKeys, "0"))
	p.Add("inpkeyColumnId", a.InpKeyColumnID)
	p.Add("keyColumnName", a.KeyColumnName)
	p.Add("inpdocstatus", extract(in.Record, docStatusKeys, "DR"))
	p.Add("inpprocessing", extract(in.Record, processingKeys, "N"))
	p.Add("inpposted", extract(in.Record, postedKeys, "N"))

	placeholders := map[string]string{
		"$recordId": in.RecordID,
		"$windowId": in.WindowID,
		"$tabId":    in.TabID,
		"$tableId":  in.TableID,
	}
	for k, v := range a.AdditionalParameters {
		if r, ok := placeholders[v]; ok {
			v = r
		}
		p.Add(k, v)
	}

	if a.Posted {
		p.Add("inpdocaction", "P")
	} else {
		p.Add("inpdocaction", "CO")
	}
	if in.Token != "" {
		p.Add("token", in.Token)
	}
	return p, nil
}

func extract(rec map[string]any, keys []string, def string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case bool:
			if val {
				return "Y"
			}
			return "N"
		default:
			return fmt.Sprint(val)
		}
	}
	return def
}

// Manual opens classic popups. OnLoad returns the popup URL and its
// parameters; OnProcess submits them through the ERP client.
type Manual struct {
	catalog *Catalog
	erp     *erp.Client
}

func NewManual(c *Catalog, ec *erp.Client) *Manual { return &Manual{catalog: c, erp: ec} }

// For manual processes the definition id is the button id.
func paramsInput(s domain.Session, windowID, tabID string, rec map[string]any, recordID string) ParamsInput {
	tableID, _ := rec["table"].(string)
	return ParamsInput{Record: rec, RecordID: recordID, WindowID: windowID, TabID: tabID, TableID: tableID, Token: s.Token}
}

func (m *Manual) OnLoad(_ context.Context, s domain.Session, def Definition, lc LoadContext) (Result, error) {
	a, ok := m.catalog.Get(def.ID)
	if !ok {
		return nil, fmt.Errorf("%w: no manual action for button %s", domain.ErrNotFound, def.ID)
	}
	var recordID string
	var rec map[string]any
	for id, r := range lc.SelectedRecords {
		recordID, rec = id, r
		break
	}
	params, err := m.catalog.Params(def.ID, paramsInput(s, lc.WindowID, lc.TabID, rec, recordID))
	if err != nil {
		return nil, err
	}
	return Result{
		"url":    m.erp.BaseURL() + strings.TrimPrefix(a.Action, "/"),
		"params": params.Encode(),
		"name":   a.Name,
	}, nil
}

func (m *Manual) OnProcess(ctx context.Context, s domain.Session, def Definition, p ExecParams) (Result, error) {
	a, ok := m.catalog.Get(def.ID)
	if !ok {
		return nil, fmt.Errorf("%w: no manual action for button %s", domain.ErrNotFound, def.ID)
	}
	if len(p.RecordIDs) == 0 {
		return nil, fmt.Errorf("%w: recordIds", domain.ErrBadParams)
	}
	tabID, _ := p.Params["tabId"].(string)
	params, err := m.catalog.Params(def.ID, paramsInput(s, p.WindowID, tabID, p.Params, p.RecordIDs[0]))
	if err != nil {
		return nil, err
	}
	resp, err := m.erp.ForSession(s).Post(ctx, a.Action, params)
	if err != nil {
		return nil, err
	}
	if err := resp.Err("manual process"); err != nil {
		return nil, err
	}
	return Result{"success": true, "status": resp.Status}, nil
}
