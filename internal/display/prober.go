package display

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"

	"hotdock/internal/logging"
)

// Output is one RandR output as seen by the prober.
type Output struct {
	Name string `json:"name"`
	// Connected is true when the output carries a non-empty EDID.
	Connected bool `json:"connected"`
	// RandRConnected mirrors the server's own connection state.
	RandRConnected bool `json:"randr_connected"`
	EDIDBytes      int  `json:"edid_bytes"`
}

// Prober enumerates outputs in a stable order and answers connection queries.
type Prober interface {
	Outputs(ctx context.Context) ([]Output, error)
	IsConnected(ctx context.Context, name string) bool
}

type queryFunc func(ctx context.Context) ([]Output, error)

// RandRProber queries the X server through a fresh connection per call.
type RandRProber struct {
	display string
	logger  *slog.Logger
	query   queryFunc
}

// NewRandRProber returns a prober for the given X display. An empty display
// uses $DISPLAY.
func NewRandRProber(display string, logger *slog.Logger) *RandRProber {
	p := &RandRProber{
		display: display,
		logger:  logging.NewComponentLogger(logger, "display"),
	}
	p.query = p.queryRandR
	return p
}

// Outputs returns every output in server enumeration order.
func (p *RandRProber) Outputs(ctx context.Context) ([]Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.query(ctx)
}

// IsConnected reports false for unknown outputs and on any probe failure.
func (p *RandRProber) IsConnected(ctx context.Context, name string) bool {
	outputs, err := p.Outputs(ctx)
	if err != nil {
		logging.WarnWithContext(p.logger, "output probe failed; treating output as disconnected", "output_probe_failed",
			logging.Output(name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the X server is reachable and DISPLAY is set"),
			logging.String(logging.FieldImpact, "workspaces may be remembered for an output that is still attached"),
		)
		return false
	}
	for _, out := range outputs {
		if out.Name == name {
			return out.Connected
		}
	}
	return false
}

func (p *RandRProber) queryRandR(ctx context.Context) ([]Output, error) {
	conn, err := xgb.NewConnDisplay(p.display)
	if err != nil {
		return nil, fmt.Errorf("connect to X display %q: %w", p.display, err)
	}
	defer conn.Close()

	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("init randr extension: %w", err)
	}
	root := xproto.Setup(conn).DefaultScreen(conn).Root

	resources, err := randr.GetScreenResourcesCurrent(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("get screen resources: %w", err)
	}

	edidAtom, err := internAtom(conn, "EDID")
	if err != nil {
		return nil, err
	}

	outputs := make([]Output, 0, len(resources.Outputs))
	for _, id := range resources.Outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := randr.GetOutputInfo(conn, id, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("get output info %d: %w", id, err)
		}
		out := Output{
			Name:           string(info.Name),
			RandRConnected: info.Connection == randr.ConnectionConnected,
		}
		if edidAtom != xproto.AtomNone {
			prop, err := randr.GetOutputProperty(conn, id, edidAtom, xproto.AtomAny, 0, 128, false, false).Reply()
			if err != nil {
				return nil, fmt.Errorf("get EDID for %s: %w", out.Name, err)
			}
			out.EDIDBytes = len(prop.Data)
			out.Connected = prop.NumItems > 0 && len(prop.Data) > 0
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// internAtom returns AtomNone when the server has never seen the name.
func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone, fmt.Errorf("intern atom %s: %w", name, err)
	}
	return reply.Atom, nil
}
