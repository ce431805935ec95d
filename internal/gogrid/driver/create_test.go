package driver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhop/gogrid/pkg/compute"
	"github.com/gridhop/gogrid/pkg/events"
	"github.com/gridhop/gogrid/pkg/logger"
)

const addResponseNoID = `{"status":"success","list":[
	{"name":"web-3","state":{"name":"Starting"},"ram":{"name":"512MB"},"ip":{"ip":"10.1.1.50"},"isSandbox":"false"}
]}`

func withProvisioningFixtures(api *fakeAPI) {
	api.respond(pathIPList, `{"status":"success","list":[{"ip":"10.1.1.50"}]}`)
	api.respond(pathServerAdd, addResponseNoID)
	api.respond(pathPasswordList, `{"status":"success","list":[]}`)
}

func fastOptions(bus *events.Bus) Options {
	return Options{
		PollInterval:      5 * time.Millisecond,
		AllocationTimeout: 250 * time.Millisecond,
		Bus:               bus,
	}
}

func TestDriver_CreateNodeAsync(t *testing.T) {
	api := newFakeAPI(t)
	withProvisioningFixtures(api)
	api.handle(pathServerAdd, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "web-3", q.Get("name"))
		assert.Equal(t, "1531", q.Get("image"))
		assert.Equal(t, "512MB", q.Get("server.ram"))
		assert.Equal(t, "false", q.Get("isSandbox"))
		assert.Equal(t, "10.1.1.50", q.Get("ip"), "uses the allocated address")
		w.Write([]byte(addResponseNoID))
	})

	d := newTestDriver(t, api, fastOptions(nil))
	node, err := d.CreateNodeAsync(context.Background(), CreateSpec{
		Name:    "web-3",
		ImageID: "1531",
		SizeID:  "512MB",
	})
	require.NoError(t, err)

	assert.False(t, node.ID.Assigned(), "id allocation is asynchronous")
	assert.Equal(t, []string{"10.1.1.50"}, node.PublicIPs)
	assert.Empty(t, node.Extra.Password, "async create never attaches a password")
	assert.NotEmpty(t, node.UUID(), "derived uuid is available before id allocation")
}

func TestDriver_CreateNode(t *testing.T) {
	t.Run("resolves once a matching record has an id", func(t *testing.T) {
		api := newFakeAPI(t)
		withProvisioningFixtures(api)

		// first poll still shows the node without an id, the next one
		// resolves it
		polls := 0
		api.handle(pathServerList, func(w http.ResponseWriter, r *http.Request) {
			polls++
			if polls == 1 {
				w.Write([]byte(`{"status":"success","list":[
					{"name":"web-3","state":{"name":"Starting"},"ram":{"name":"512MB"},"ip":{"ip":"10.1.1.50"},"isSandbox":"false"}
				]}`))
				return
			}
			w.Write([]byte(`{"status":"success","list":[
				{"id":90970,"name":"web-3","state":{"name":"On"},"ram":{"name":"512MB"},"ip":{"ip":"10.1.1.50"},"isSandbox":"false"}
			]}`))
		})

		bus := events.NewBus(logger.NewDevelopment("create_test"))
		defer bus.Close()

		var resolved []events.ProvisionEvent
		_, err := bus.Subscribe(events.TopicProvisionResolved, func(ev events.ProvisionEvent) {
			resolved = append(resolved, ev)
		})
		require.NoError(t, err)

		d := newTestDriver(t, api, fastOptions(bus))
		node, err := d.CreateNode(context.Background(), CreateSpec{
			Name:    "web-3",
			ImageID: "1531",
			SizeID:  "512MB",
		})
		require.NoError(t, err)

		id, assigned := node.ID.Value()
		assert.True(t, assigned)
		assert.Equal(t, "90970", id)
		assert.Equal(t, compute.StateRunning, node.State)

		listCalls := api.count(pathServerList)
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, listCalls, api.count(pathServerList), "polling stops after resolution")

		require.Len(t, resolved, 1)
		assert.Equal(t, "90970", resolved[0].NodeID)
		assert.Equal(t, "10.1.1.50", resolved[0].PublicIP)
	})

	t.Run("ignores identified records with a different address", func(t *testing.T) {
		api := newFakeAPI(t)
		withProvisioningFixtures(api)

		polls := 0
		api.handle(pathServerList, func(w http.ResponseWriter, r *http.Request) {
			polls++
			if polls == 1 {
				// an unrelated identified node must not satisfy the wait
				w.Write([]byte(`{"status":"success","list":[
					{"id":11111,"name":"other","state":{"name":"On"},"ram":{"name":"1GB"},"ip":{"ip":"10.9.9.9"},"isSandbox":"false"}
				]}`))
				return
			}
			w.Write([]byte(`{"status":"success","list":[
				{"id":90970,"name":"web-3","state":{"name":"On"},"ram":{"name":"512MB"},"ip":{"ip":"10.1.1.50"},"isSandbox":"false"}
			]}`))
		})

		d := newTestDriver(t, api, fastOptions(nil))
		node, err := d.CreateNode(context.Background(), CreateSpec{
			Name:    "web-3",
			ImageID: "1531",
			SizeID:  "512MB",
		})
		require.NoError(t, err)

		id, _ := node.ID.Value()
		assert.Equal(t, "90970", id)
		assert.GreaterOrEqual(t, polls, 2)
	})

	t.Run("times out when no id ever appears", func(t *testing.T) {
		api := newFakeAPI(t)
		withProvisioningFixtures(api)
		api.respond(pathServerList, `{"status":"success","list":[
			{"name":"web-3","state":{"name":"Starting"},"ram":{"name":"512MB"},"ip":{"ip":"10.1.1.50"},"isSandbox":"false"}
		]}`)

		bus := events.NewBus(logger.NewDevelopment("create_test"))
		defer bus.Close()

		timedOut := 0
		_, err := bus.Subscribe(events.TopicProvisionTimedOut, func(events.ProvisionEvent) { timedOut++ })
		require.NoError(t, err)

		opts := fastOptions(bus)
		opts.AllocationTimeout = 25 * time.Millisecond

		d := newTestDriver(t, api, opts)
		_, err = d.CreateNode(context.Background(), CreateSpec{
			Name:    "web-3",
			ImageID: "1531",
			SizeID:  "512MB",
		})

		var timeoutErr *AllocationTimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Equal(t, "web-3", timeoutErr.NodeName)
		assert.Equal(t, "10.1.1.50", timeoutErr.PublicIP)
		assert.Equal(t, 1, timedOut)

		listCalls := api.count(pathServerList)
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, listCalls, api.count(pathServerList), "no polling after timeout")
	})

	t.Run("cancellation aborts the wait", func(t *testing.T) {
		api := newFakeAPI(t)
		withProvisioningFixtures(api)
		api.respond(pathServerList, `{"status":"success","list":[
			{"name":"web-3","state":{"name":"Starting"},"ram":{"name":"512MB"},"ip":{"ip":"10.1.1.50"},"isSandbox":"false"}
		]}`)

		opts := fastOptions(nil)
		opts.PollInterval = 50 * time.Millisecond
		opts.AllocationTimeout = 10 * time.Second

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		d := newTestDriver(t, api, opts)
		_, err := d.CreateNode(ctx, CreateSpec{
			Name:    "web-3",
			ImageID: "1531",
			SizeID:  "512MB",
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("poll list failures propagate", func(t *testing.T) {
		api := newFakeAPI(t)
		withProvisioningFixtures(api)
		api.handle(pathServerList, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		d := newTestDriver(t, api, fastOptions(nil))
		_, err := d.CreateNode(context.Background(), CreateSpec{
			Name:    "web-3",
			ImageID: "1531",
			SizeID:  "512MB",
		})
		assert.Error(t, err)
	})

	t.Run("ip exhaustion fails before provisioning", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(pathIPList, `{"status":"success","list":[]}`)

		d := newTestDriver(t, api, fastOptions(nil))
		_, err := d.CreateNode(context.Background(), CreateSpec{
			Name:    "web-3",
			ImageID: "1531",
			SizeID:  "512MB",
		})
		assert.ErrorIs(t, err, ErrNoUnassignedIPs)
		assert.Zero(t, api.count(pathServerAdd))
	})
}
