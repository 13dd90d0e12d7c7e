package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(serviceName+"."+method, req, resp)
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Workspaces lists tracked workspaces.
func (c *Client) Workspaces() (*WorkspacesResponse, error) {
	var resp WorkspacesResponse
	if err := c.call("Workspaces", WorkspacesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Outputs probes RandR outputs through the daemon.
func (c *Client) Outputs() (*OutputsResponse, error) {
	var resp OutputsResponse
	if err := c.call("Outputs", OutputsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Layout previews the xrandr arguments of the next pass.
func (c *Client) Layout() (*LayoutResponse, error) {
	var resp LayoutResponse
	if err := c.call("Layout", LayoutRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Trigger runs a hotplug pass and waits for its report.
func (c *Client) Trigger() (*TriggerResponse, error) {
	var resp TriggerResponse
	if err := c.call("Trigger", TriggerRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reconcile folds a fresh i3 snapshot into the store.
func (c *Client) Reconcile() (*ReconcileResponse, error) {
	var resp ReconcileResponse
	if err := c.call("Reconcile", ReconcileRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reload asks the daemon to re-read its config file.
func (c *Client) Reload() (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.call("Reload", ReloadRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon process to exit.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
