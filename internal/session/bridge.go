// =============================================================================
// SAP Account Items Updater - Scripting Bridge Client
// =============================================================================
//
// This file implements the Session interface over a line-delimited JSON
// conversation with the GUI scripting host (the Windows-side process that
// owns the actual SAP GUI session and translates bridge operations into
// scripting calls).
//
// WIRE FORMAT:
//   One JSON object per line in each direction.
//
//   Request:  {"id":7,"op":"set_field","args":{"name":"PA_VARI","value":"/X"}}
//   Response: {"id":7,"ok":true}
//   Error:    {"id":7,"ok":false,"code":"FIELD_NOT_FOUND","error":"..."}
//
// The bridge is strictly request/response: one operation at a time, which
// mirrors the session's own modal, single-command nature. There are no
// asynchronous notifications.
//
// =============================================================================

package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strings"
)

// Host error codes mapped onto adapter sentinel errors.
const (
	codeFieldNotFound  = "FIELD_NOT_FOUND"
	codeFolderNotFound = "FOLDER_NOT_FOUND"
)

// =============================================================================
// BRIDGE STRUCTURE
// =============================================================================

// Bridge is a Session implementation backed by a scripting host connection.
type Bridge struct {
	conn    net.Conn
	scanner *bufio.Scanner
	seq     uint64
}

// bridgeRequest is one operation sent to the scripting host.
type bridgeRequest struct {
	ID   uint64         `json:"id"`
	Op   string         `json:"op"`
	Args map[string]any `json:"args,omitempty"`
}

// bridgeResponse is the host's reply to one operation.
type bridgeResponse struct {
	ID    uint64 `json:"id"`
	OK    bool   `json:"ok"`
	Value string `json:"value,omitempty"`
	Flag  bool   `json:"flag,omitempty"`
	Count int    `json:"count,omitempty"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Dial connects to the scripting host at the given TCP address and returns
// a Session bound to the live SAP GUI session the host owns.
func Dial(addr string) (*Bridge, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the scripting host: %w", err)
	}
	return NewBridge(conn), nil
}

// NewBridge wraps an established connection to a scripting host.
func NewBridge(conn net.Conn) *Bridge {
	return &Bridge{
		conn:    conn,
		scanner: bufio.NewScanner(conn),
	}
}

// Close closes the underlying host connection.
func (b *Bridge) Close() error {
	return b.conn.Close()
}

// call performs one request/response round trip with the scripting host.
func (b *Bridge) call(op string, args map[string]any) (*bridgeResponse, error) {
	b.seq++
	req := bridgeRequest{ID: b.seq, Op: op, Args: args}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
	}
	if _, err := b.conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send %s to the scripting host: %w", op, err)
	}

	if !b.scanner.Scan() {
		if err := b.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s response: %w", op, err)
		}
		return nil, fmt.Errorf("scripting host closed the connection during %s", op)
	}

	var resp bridgeResponse
	if err := json.Unmarshal(b.scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", op, err)
	}

	if !resp.OK {
		switch resp.Code {
		case codeFieldNotFound:
			return nil, fmt.Errorf("%w: %s", ErrFieldNotPresent, resp.Error)
		case codeFolderNotFound:
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, resp.Error)
		}
		return nil, fmt.Errorf("scripting host rejected %s: %s", op, resp.Error)
	}

	return &resp, nil
}

// =============================================================================
// SESSION IMPLEMENTATION
// =============================================================================

// StartTransaction opens the named transaction in the session.
func (b *Bridge) StartTransaction(code string) error {
	_, err := b.call("start_transaction", map[string]any{"code": code})
	return err
}

// EndTransaction closes the currently open transaction context.
func (b *Bridge) EndTransaction() error {
	_, err := b.call("end_transaction", nil)
	return err
}

// SetField writes a value into a named form field.
func (b *Bridge) SetField(name, value string) error {
	_, err := b.call("set_field", map[string]any{"name": name, "value": value})
	return err
}

// ReadField returns the displayed text of a named field.
func (b *Bridge) ReadField(name string) (string, error) {
	resp, err := b.call("read_field", map[string]any{"name": name})
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

// FieldExists reports whether a named field is present in the current screen.
func (b *Bridge) FieldExists(name string) bool {
	resp, err := b.call("field_exists", map[string]any{"name": name})
	if err != nil {
		return false
	}
	return resp.Flag
}

// SelectRadio selects a named radio button option.
func (b *Bridge) SelectRadio(name string) error {
	_, err := b.call("select_radio", map[string]any{"name": name})
	return err
}

// PressButton presses a named button in the active window.
func (b *Bridge) PressButton(name string) error {
	_, err := b.call("press_button", map[string]any{"name": name})
	return err
}

// SendKey simulates a single virtual key press in the main window.
func (b *Bridge) SendKey(key Key) error {
	_, err := b.call("send_key", map[string]any{"code": int(key)})
	return err
}

// IsModalOpen reports whether a blocking dialog is currently displayed.
func (b *Bridge) IsModalOpen() bool {
	resp, err := b.call("modal_open", nil)
	if err != nil {
		return false
	}
	return resp.Flag
}

// ResolveModal dismisses a blocking dialog.
func (b *Bridge) ResolveModal(confirm bool) error {
	_, err := b.call("resolve_modal", map[string]any{"confirm": confirm})
	return err
}

// BulkInsertValues inserts values through the currently open multi-value
// picker. The values travel through the host clipboard, which is cleared
// again before the call returns, even on failure.
func (b *Bridge) BulkInsertValues(values []string) error {
	// Clear any previous values in the picker.
	if err := b.SendKey(KeyShiftF4); err != nil {
		return err
	}

	if err := b.setClipboard(strings.Join(values, "\r\n")); err != nil {
		return err
	}
	defer b.setClipboard("") //nolint:errcheck // best effort wipe

	// Paste from clipboard, then confirm the entered values.
	if err := b.SendKey(KeyShiftF12); err != nil {
		return err
	}
	return b.SendKey(KeyF8)
}

// setClipboard stages text in the scripting host clipboard.
func (b *Bridge) setClipboard(text string) error {
	_, err := b.call("set_clipboard", map[string]any{"text": text})
	return err
}

// ReadStatusLine returns the status bar text of the main window.
func (b *Bridge) ReadStatusLine() (string, error) {
	resp, err := b.call("read_status", nil)
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

// ItemGrid returns a handle to the loaded line item grid.
func (b *Bridge) ItemGrid() (Grid, error) {
	// Probe the grid once so a missing grid surfaces here, not on first use.
	if _, err := b.call("grid_rows", map[string]any{"grid": "items"}); err != nil {
		return nil, err
	}
	return &bridgeGrid{bridge: b, target: "items"}, nil
}

// FilterGrid returns a handle to the filter criteria table.
func (b *Bridge) FilterGrid() (Grid, error) {
	if _, err := b.call("grid_rows", map[string]any{"grid": "filters"}); err != nil {
		return nil, err
	}
	return &bridgeGrid{bridge: b, target: "filters"}, nil
}

// ExportGridToFile writes the displayed grid to a local file on the host.
func (b *Bridge) ExportGridToFile(dir, filename, encoding string) error {
	_, err := b.call("export_grid", map[string]any{
		"directory": dir,
		"filename":  filename,
		"encoding":  encoding,
	})
	return err
}

// =============================================================================
// GRID IMPLEMENTATION
// =============================================================================

// bridgeGrid addresses one of the host-side grids by target name.
type bridgeGrid struct {
	bridge *Bridge
	target string
}

// RowCount returns the number of rows currently displayed in the grid.
func (g *bridgeGrid) RowCount() (int, error) {
	resp, err := g.bridge.call("grid_rows", map[string]any{"grid": g.target})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// CellValue returns the displayed text of one grid cell.
func (g *bridgeGrid) CellValue(row int, column string) (string, error) {
	resp, err := g.bridge.call("grid_cell", map[string]any{
		"grid":   g.target,
		"row":    row,
		"column": column,
	})
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

// SelectRow marks a row as the selected and current row.
func (g *bridgeGrid) SelectRow(row int) error {
	_, err := g.bridge.call("grid_select_row", map[string]any{
		"grid": g.target,
		"row":  row,
	})
	return err
}
