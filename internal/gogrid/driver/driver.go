package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gridhop/gogrid/internal/gogrid/client"
	"github.com/gridhop/gogrid/pkg/compute"
	"github.com/gridhop/gogrid/pkg/events"
	"github.com/gridhop/gogrid/pkg/logger"
)

const (
	pathServerList   = "/api/grid/server/list"
	pathServerAdd    = "/api/grid/server/add"
	pathServerPower  = "/api/grid/server/power"
	pathServerDelete = "/api/grid/server/delete"
	pathImageList    = "/api/grid/image/list"
	pathImageSave    = "/api/grid/image/save"
	pathIPList       = "/api/grid/ip/list"
	pathPasswordList = "/api/support/password/list"
	pathLookupList   = "/api/common/lookup/list"
)

// Options tunes the driver. Zero values fall back to the provider's
// conservative identifier-allocation latency.
type Options struct {
	// PollInterval is the wait between id-allocation polls during a
	// blocking create.
	PollInterval time.Duration

	// AllocationTimeout bounds the total wait for id allocation.
	AllocationTimeout time.Duration

	// Bus receives provisioning progress events. Nil disables publishing.
	Bus *events.Bus
}

// Driver orchestrates node lifecycle workflows over the signed transport.
// It holds no mutable state; the same Driver may be used from any number of
// goroutines.
type Driver struct {
	client       *client.Client
	logger       *logger.Logger
	bus          *events.Bus
	pollInterval time.Duration
	allocTimeout time.Duration
}

// New creates a Driver on top of an authenticated client.
func New(c *client.Client, opts Options, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.NewDevelopment("driver")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Minute
	}
	if opts.AllocationTimeout <= 0 {
		opts.AllocationTimeout = 20 * time.Minute
	}

	return &Driver{
		client:       c,
		logger:       log,
		bus:          opts.Bus,
		pollInterval: opts.PollInterval,
		allocTimeout: opts.AllocationTimeout,
	}
}

// request issues one call and classifies the response: authentication and
// malformed-body errors surface as-is, a reported non-success becomes an
// *OperationError carrying the provider's message.
func (d *Driver) request(ctx context.Context, path string, params url.Values, method string) (*client.Response, error) {
	resp, err := d.client.Do(ctx, path, params, method)
	if err != nil {
		return nil, err
	}
	ok, err := resp.Success()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &OperationError{Endpoint: path, Message: resp.ErrorMessage()}
	}
	return resp, nil
}

// ListNodes fetches the server list and merges in provisioned passwords
// from the support password list. Some API keys lack permission for the
// password endpoint; that authentication failure is swallowed and the nodes
// are returned without passwords. Any other password-list failure is fatal
// to the call.
func (d *Driver) ListNodes(ctx context.Context) ([]compute.Node, error) {
	resp, err := d.request(ctx, pathServerList, nil, http.MethodGet)
	if err != nil {
		return nil, err
	}
	servers, err := client.DecodeList[client.ServerRecord](resp)
	if err != nil {
		return nil, err
	}

	passwords, err := d.passwordsByServerID(ctx)
	if err != nil {
		var authErr *client.AuthError
		if !errors.As(err, &authErr) {
			return nil, err
		}
		d.logger.Debug("password list not readable with this API key, continuing without passwords",
			slog.String("reason", authErr.Reason))
		passwords = nil
	}

	nodes := make([]compute.Node, 0, len(servers))
	for _, rec := range servers {
		node, err := toNode(rec, passwords[coerceID(rec.ID)])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (d *Driver) passwordsByServerID(ctx context.Context) (map[string]string, error) {
	resp, err := d.request(ctx, pathPasswordList, nil, http.MethodGet)
	if err != nil {
		return nil, err
	}
	records, err := client.DecodeList[client.PasswordRecord](resp)
	if err != nil {
		return nil, err
	}

	passwords := make(map[string]string, len(records))
	for _, rec := range records {
		// entries not tied to a server are account-level, skip them
		if id := coerceID(rec.Server.ID); id != "" {
			passwords[id] = rec.Password
		}
	}
	return passwords, nil
}

// ListImages fetches the machine images, optionally filtered to one
// datacenter.
func (d *Driver) ListImages(ctx context.Context, location *compute.Location) ([]compute.Image, error) {
	params := url.Values{}
	if location != nil {
		params.Set("datacenter", location.ID)
	}
	resp, err := d.request(ctx, pathImageList, params, http.MethodGet)
	if err != nil {
		return nil, err
	}
	records, err := client.DecodeList[client.ImageRecord](resp)
	if err != nil {
		return nil, err
	}

	images := make([]compute.Image, 0, len(records))
	for _, rec := range records {
		images = append(images, toImage(rec))
	}
	return images, nil
}

// ListLocations fetches the datacenter lookup list.
func (d *Driver) ListLocations(ctx context.Context) ([]compute.Location, error) {
	params := url.Values{}
	params.Set("lookup", "ip.datacenter")

	resp, err := d.request(ctx, pathLookupList, params, http.MethodGet)
	if err != nil {
		return nil, err
	}
	records, err := client.DecodeList[client.DatacenterRecord](resp)
	if err != nil {
		return nil, err
	}

	locations := make([]compute.Location, 0, len(records))
	for _, rec := range records {
		locations = append(locations, toLocation(rec))
	}
	return locations, nil
}

// ListSizes returns the static plan catalog; the provider has no sizes
// endpoint.
func (d *Driver) ListSizes() []compute.SizeSpec {
	return compute.Sizes()
}

// RebootNode restarts a node. At-most-once: a transport failure surfaces
// directly and the call is not retried.
func (d *Driver) RebootNode(ctx context.Context, node compute.Node) error {
	id, ok := node.ID.Value()
	if !ok {
		return fmt.Errorf("reboot %q: %w", node.Name, ErrNodeUnidentified)
	}

	params := url.Values{}
	params.Set("id", id)
	params.Set("power", "restart")

	_, err := d.request(ctx, pathServerPower, params, http.MethodPost)
	return err
}

// DestroyNode deletes a node. At-most-once, like RebootNode.
func (d *Driver) DestroyNode(ctx context.Context, node compute.Node) error {
	id, ok := node.ID.Value()
	if !ok {
		return fmt.Errorf("destroy %q: %w", node.Name, ErrNodeUnidentified)
	}

	params := url.Values{}
	params.Set("id", id)

	_, err := d.request(ctx, pathServerDelete, params, http.MethodPost)
	return err
}

// AllocateUnassignedIP returns the first unassigned public IP, optionally
// constrained to a datacenter. The provider offers no atomic reservation:
// another allocator may grab the same address before it is bound to a
// server, so the result is a best-effort hint, not a reservation.
func (d *Driver) AllocateUnassignedIP(ctx context.Context, location *compute.Location) (string, error) {
	params := url.Values{}
	params.Set("ip.state", "Unassigned")
	params.Set("ip.type", "public")
	if location != nil {
		params.Set("datacenter", location.ID)
	}

	resp, err := d.request(ctx, pathIPList, params, http.MethodGet)
	if err != nil {
		return "", err
	}
	records, err := client.DecodeList[client.IPRecord](resp)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", ErrNoUnassignedIPs
	}
	return records[0].IP, nil
}

// SaveImage snapshots a running node into a new image. The node must be
// prepared per the provider's imaging documentation beforehand.
func (d *Driver) SaveImage(ctx context.Context, node compute.Node, name string) (compute.Image, error) {
	id, ok := node.ID.Value()
	if !ok {
		return compute.Image{}, fmt.Errorf("save image of %q: %w", node.Name, ErrNodeUnidentified)
	}

	params := url.Values{}
	params.Set("server", id)
	params.Set("friendlyName", name)

	resp, err := d.request(ctx, pathImageSave, params, http.MethodPost)
	if err != nil {
		return compute.Image{}, err
	}
	records, err := client.DecodeList[client.ImageRecord](resp)
	if err != nil {
		return compute.Image{}, err
	}
	if len(records) == 0 {
		return compute.Image{}, &OperationError{Endpoint: pathImageSave, Message: "image save returned no record"}
	}
	return toImage(records[0]), nil
}

// CreateSpec describes the node to provision.
type CreateSpec struct {
	Name        string
	ImageID     string
	SizeID      string // plan id, e.g. "512MB"
	Description string
	Sandbox     bool
	Location    *compute.Location
}

func (s CreateSpec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("node name is required")
	}
	if s.ImageID == "" {
		return fmt.Errorf("image id is required")
	}
	if s.SizeID == "" {
		return fmt.Errorf("size id is required")
	}
	return nil
}

// CreateNodeAsync submits the provisioning request and returns immediately.
// The provider assigns node identifiers only minutes after the call, so the
// returned node almost always carries a pending ID; use CreateNode to block
// until it resolves. Unlike a node observed via ListNodes, the returned
// node never has a password attached.
func (d *Driver) CreateNodeAsync(ctx context.Context, spec CreateSpec) (compute.Node, error) {
	if err := spec.validate(); err != nil {
		return compute.Node{}, err
	}

	ip, err := d.AllocateUnassignedIP(ctx, spec.Location)
	if err != nil {
		return compute.Node{}, err
	}

	params := url.Values{}
	params.Set("name", spec.Name)
	params.Set("image", spec.ImageID)
	params.Set("description", spec.Description)
	params.Set("isSandbox", strconv.FormatBool(spec.Sandbox))
	params.Set("server.ram", spec.SizeID)
	params.Set("ip", ip)

	resp, err := d.request(ctx, pathServerAdd, params, http.MethodPost)
	if err != nil {
		return compute.Node{}, err
	}
	records, err := client.DecodeList[client.ServerRecord](resp)
	if err != nil {
		return compute.Node{}, err
	}
	if len(records) == 0 {
		return compute.Node{}, &OperationError{Endpoint: pathServerAdd, Message: "provisioning returned no record"}
	}
	return toNode(records[0], "")
}
