package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"

	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/protocol"
	"github.com/mrsinham/radtech/internal/selection"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// uiSignals are the inputs the page sends with every change.
type uiSignals struct {
	Age               string `json:"age"`
	BodyType          string `json:"bodyType"`
	Region            string `json:"region"`
	EquipmentConstant string `json:"equipmentConstant"`
}

// uiOutput is patched back into the page.
type uiOutput struct {
	BodyType  string `json:"bodyType"`
	KV        string `json:"kv"`
	MA        string `json:"ma"`
	MAs       string `json:"mas"`
	Time      string `json:"time"`
	Equipment string `json:"equipment"`
	Complete  bool   `json:"complete"`
	Adult     bool   `json:"adult"`
}

func outputFor(resp deriveResponse) uiOutput {
	d := resp.Display
	return uiOutput{
		BodyType:  string(resp.Selection.BodyType),
		KV:        d.KV,
		MA:        d.MA,
		MAs:       d.MAs,
		Time:      d.Time,
		Equipment: d.Equipment,
		Complete:  resp.Complete,
		Adult:     resp.Selection.IsAdult(),
	}
}

type option struct {
	Key   string
	Label string
}

type indexData struct {
	Protocol string
	Signals  string
	Output   uiOutput
	Ages     []option
	Bodies   []option
	Groups   []regionGroupInfo
}

// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	e := s.Engine()

	sel, _, err := selection.Restore(r.Context(), s.store)
	if err != nil {
		s.logger.Warn("restore selection", zap.Error(err))
	}
	resp := derive(e, string(sel.Age), string(sel.BodyType), string(sel.Region), "")

	out := outputFor(resp)
	signals := map[string]any{
		"age":               string(sel.Age),
		"bodyType":          out.BodyType,
		"region":            string(sel.Region),
		"equipmentConstant": "",
		"kv":                out.KV,
		"ma":                out.MA,
		"mas":               out.MAs,
		"time":              out.Time,
		"equipment":         out.Equipment,
		"complete":          out.Complete,
		"adult":             out.Adult,
	}
	raw, err := json.Marshal(signals)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := indexData{
		Protocol: e.Protocol().Label(),
		Signals:  string(raw),
		Output:   out,
		Groups:   regionGroups(e.Protocol()),
	}
	for _, a := range protocol.AllAgeBrackets() {
		data.Ages = append(data.Ages, option{Key: string(a), Label: a.Label()})
	}
	for _, b := range protocol.AllBodyTypes() {
		data.Bodies = append(data.Bodies, option{Key: string(b), Label: b.Label()})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("render index", zap.Error(err))
	}
}

// GET /ui/derive recomputes the technique from the page signals and
// patches the output signals. The selection is saved on every change.
func (s *Server) handleUIDerive(w http.ResponseWriter, r *http.Request) {
	var signals uiSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := derive(s.Engine(), signals.Age, signals.BodyType, signals.Region, signals.EquipmentConstant)
	s.saveSelection(r, resp.Selection)

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(outputFor(resp)); err != nil {
		s.logger.Warn("patch signals", zap.Error(err))
	}
}

// saveSelection persists sel; failures are logged and otherwise ignored.
func (s *Server) saveSelection(r *http.Request, sel engine.Selection) {
	if err := s.store.Save(r.Context(), selection.FromSelection(sel, s.now())); err != nil {
		s.logger.Warn("save selection", zap.Error(err))
	}
}
