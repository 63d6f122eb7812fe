package session

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedHost answers bridge requests on the far end of a pipe and records
// every operation it saw.
type scriptedHost struct {
	ops    []bridgeRequest
	handle func(req bridgeRequest) bridgeResponse
}

// startHost wires a Bridge to a scripted host over an in-memory pipe.
func startHost(t *testing.T, handle func(req bridgeRequest) bridgeResponse) (*Bridge, *scriptedHost) {
	t.Helper()

	client, server := net.Pipe()
	host := &scriptedHost{handle: handle}

	go func() {
		scanner := bufio.NewScanner(server)
		for scanner.Scan() {
			var req bridgeRequest
			if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
				return
			}
			host.ops = append(host.ops, req)

			resp := bridgeResponse{OK: true}
			if host.handle != nil {
				resp = host.handle(req)
			}
			resp.ID = req.ID

			payload, err := json.Marshal(resp)
			if err != nil {
				return
			}
			if _, err := server.Write(append(payload, '\n')); err != nil {
				return
			}
		}
	}()

	bridge := NewBridge(client)
	t.Cleanup(func() {
		bridge.Close()
		server.Close()
	})
	return bridge, host
}

func TestBridgeSetField(t *testing.T) {
	bridge, host := startHost(t, nil)

	require.NoError(t, bridge.SetField("PA_VARI", "/UPDATER"))

	require.Len(t, host.ops, 1)
	assert.Equal(t, "set_field", host.ops[0].Op)
	assert.Equal(t, "PA_VARI", host.ops[0].Args["name"])
	assert.Equal(t, "/UPDATER", host.ops[0].Args["value"])
}

func TestBridgeReadFieldAndStatus(t *testing.T) {
	bridge, _ := startHost(t, func(req bridgeRequest) bridgeResponse {
		switch req.Op {
		case "read_field":
			return bridgeResponse{OK: true, Value: "0075"}
		case "read_status":
			return bridgeResponse{OK: true, Value: "526 items displayed"}
		}
		return bridgeResponse{OK: true}
	})

	value, err := bridge.ReadField("SD_BUKRS-LOW")
	require.NoError(t, err)
	assert.Equal(t, "0075", value)

	status, err := bridge.ReadStatusLine()
	require.NoError(t, err)
	assert.Equal(t, "526 items displayed", status)
}

func TestBridgeErrorCodeMapping(t *testing.T) {
	bridge, _ := startHost(t, func(req bridgeRequest) bridgeResponse {
		switch req.Op {
		case "set_field":
			return bridgeResponse{OK: false, Code: "FIELD_NOT_FOUND", Error: "no field BSEG-XXXXX"}
		case "export_grid":
			return bridgeResponse{OK: false, Code: "FOLDER_NOT_FOUND", Error: "no such directory"}
		}
		return bridgeResponse{OK: false, Error: "unexpected"}
	})

	err := bridge.SetField("BSEG-XXXXX", "value")
	assert.ErrorIs(t, err, ErrFieldNotPresent)

	err = bridge.ExportGridToFile(`C:\missing`, "out.txt", "4120")
	assert.ErrorIs(t, err, ErrFolderNotFound)
}

func TestBridgeFieldExists(t *testing.T) {
	bridge, _ := startHost(t, func(req bridgeRequest) bridgeResponse {
		name, _ := req.Args["name"].(string)
		return bridgeResponse{OK: true, Flag: name == "PA_WLSAK"}
	})

	assert.True(t, bridge.FieldExists("PA_WLSAK"))
	assert.False(t, bridge.FieldExists("PA_WLKUN"))
}

func TestBridgeBulkInsertSequence(t *testing.T) {
	bridge, host := startHost(t, nil)

	require.NoError(t, bridge.BulkInsertValues([]string{"40010000", "40020000"}))

	var trace []string
	for _, op := range host.ops {
		entry := op.Op
		if op.Op == "send_key" {
			code, _ := op.Args["code"].(float64)
			entry += keyName(Key(code))
		}
		if op.Op == "set_clipboard" {
			text, _ := op.Args["text"].(string)
			if text == "" {
				entry += ":clear"
			} else {
				assert.Equal(t, "40010000\r\n40020000", text)
			}
		}
		trace = append(trace, entry)
	}

	// Clear picker, stage clipboard, paste, confirm, wipe clipboard.
	assert.Equal(t, []string{
		"send_key:shift_f4",
		"set_clipboard",
		"send_key:shift_f12",
		"send_key:f8",
		"set_clipboard:clear",
	}, trace)
}

func keyName(key Key) string {
	switch key {
	case KeyShiftF4:
		return ":shift_f4"
	case KeyShiftF12:
		return ":shift_f12"
	case KeyF8:
		return ":f8"
	}
	return ":other"
}

func TestBridgeGridRoundTrip(t *testing.T) {
	bridge, host := startHost(t, func(req bridgeRequest) bridgeResponse {
		switch req.Op {
		case "grid_rows":
			return bridgeResponse{OK: true, Count: 3}
		case "grid_cell":
			return bridgeResponse{OK: true, Value: "OLDA"}
		}
		return bridgeResponse{OK: true}
	})

	grid, err := bridge.ItemGrid()
	require.NoError(t, err)

	count, err := grid.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	value, err := grid.CellValue(0, "SGTXT")
	require.NoError(t, err)
	assert.Equal(t, "OLDA", value)

	require.NoError(t, grid.SelectRow(2))

	last := host.ops[len(host.ops)-1]
	assert.Equal(t, "grid_select_row", last.Op)
	assert.Equal(t, "items", last.Args["grid"])
	assert.Equal(t, float64(2), last.Args["row"])
}

func TestBridgeHostDisconnect(t *testing.T) {
	client, server := net.Pipe()
	bridge := NewBridge(client)
	t.Cleanup(func() { bridge.Close() })

	go func() {
		// Swallow one request, then drop the connection mid-conversation.
		scanner := bufio.NewScanner(server)
		scanner.Scan()
		server.Close()
	}()

	err := bridge.EndTransaction()
	assert.Error(t, err)
}
