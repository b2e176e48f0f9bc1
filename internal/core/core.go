// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package core is the orchestrator's brain: the collection cycle, the layout
// selection state machine, offline fallback, and command processing. All
// mutable orchestration state lives on Core and is serialized behind one
// mutex; the transport, cache, renderer, and push channel are external
// callers that send messages in or receive events out.
package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/signawave/signawave/internal/blacklist"
	"github.com/signawave/signawave/internal/config"
	"github.com/signawave/signawave/internal/events"
	"github.com/signawave/signawave/internal/logging"
	"github.com/signawave/signawave/internal/metrics"
	"github.com/signawave/signawave/internal/push"
	"github.com/signawave/signawave/internal/ratelimit"
	"github.com/signawave/signawave/internal/schedule"
	"github.com/signawave/signawave/internal/store"
	"github.com/signawave/signawave/internal/transport"
)

var (
	// ErrOfflineNoCache marks a cycle that found the network down with
	// nothing cached to replay.
	ErrOfflineNoCache = errors.New("offline with no cached data")

	// ErrRegistrationRejected marks a registration answered with anything
	// but READY.
	ErrRegistrationRejected = errors.New("registration rejected")
)

// tagConfigKeys maps CMS display-tag keys onto config fields. Tags arrive as
// "key|value" strings; unknown keys are ignored.
var tagConfigKeys = map[string]string{
	"geoApiKey": "googleGeoApiKey",
}

// override is an imposed layout selection that preempts the round-robin.
type override struct {
	layoutID   string
	kind       string // "change" or "overlay"
	changeMode string
}

// SyncDelegate coordinates sync-event layouts across a display group. The
// lead display schedules the switch; followers wait for it. A nil delegate
// plays sync-event layouts locally.
type SyncDelegate interface {
	// PrepareSyncLayout returns true when the delegate has taken over the
	// transition for the given layout.
	PrepareSyncLayout(layoutID string) bool
}

// Core owns all orchestration state for one display.
type Core struct {
	cfg config.Config
	bus *events.Bus
	rpc transport.Transport
	db  *store.Store

	limiter *ratelimit.Limiter
	tracker *blacklist.Tracker
	channel *push.Channel

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[int]

	// reportLimit throttles fire-and-forget blacklist RPCs so a flapping
	// layout cannot flood the CMS.
	reportLimit *rate.Limiter

	// now is injectable for tests.
	now func() time.Time

	// kick wakes the serve loop for an immediate collection.
	kick chan struct{}

	// collecting is the cycle guard. It is atomic rather than mu-guarded
	// because a cycle spans transport suspensions that must not hold mu.
	collecting atomic.Bool

	// attempt counts cycles since the last fully successful one. Only the
	// single in-flight cycle touches it, so the collecting guard covers it.
	attempt int

	mu sync.Mutex
	// Everything below is guarded by mu.
	offlineMode     bool
	retryInterval   time.Duration
	collectInterval time.Duration

	settings          *transport.RegistrationResult
	commands          map[string]transport.Command
	sched             *schedule.Schedule
	required          *transport.RequiredFilesResult
	lastCheckRf       string
	lastCheckSchedule string
	executedCommands  map[string]struct{}
	env               schedule.Env
	syncConfig        *transport.SyncConfig
	googleGeoAPIKey   string
	statsEnabled      bool
	downloadStart     string // "15:04", empty means no window
	downloadEnd       string

	pushStarted        bool
	lastCommandSuccess bool
	lastLayoutChange   time.Time

	// Selector state.
	active      []schedule.ActiveLayout
	index       int
	currentID   string
	ovr         *override
	revertTimer *time.Timer
	pending     map[string][]string

	// Sync is optional; set before Serve.
	Sync SyncDelegate
}

// New wires a core from its collaborators. Call Hydrate before Serve to
// replay the offline snapshot.
func New(cfg config.Config, bus *events.Bus, rpc transport.Transport, db *store.Store) *Core {
	c := &Core{
		cfg:                cfg,
		bus:                bus,
		rpc:                rpc,
		db:                 db,
		limiter:            ratelimit.NewLimiter(),
		tracker:            blacklist.NewTracker(cfg.Player.BlacklistThreshold),
		httpClient:         &http.Client{Timeout: cfg.CMS.Timeout},
		now:                time.Now,
		kick:               make(chan struct{}, 1),
		collectInterval:    cfg.Player.CollectInterval,
		commands:           make(map[string]transport.Command),
		executedCommands:   make(map[string]struct{}),
		pending:            make(map[string][]string),
		lastCommandSuccess: true,
		reportLimit:        rate.NewLimiter(rate.Every(time.Second), 5),
	}
	c.channel = push.New(c)
	c.breaker = gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name:    "command-http",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	if cfg.Player.Latitude != 0 || cfg.Player.Longitude != 0 {
		c.env.Location = &schedule.Location{
			Latitude:  cfg.Player.Latitude,
			Longitude: cfg.Player.Longitude,
		}
	}
	c.googleGeoAPIKey = cfg.Player.GoogleGeoAPIKey

	c.tracker.OnBlacklisted = func(layoutID string, failures int, reason string) {
		c.bus.Publish(events.LayoutBlacklisted{LayoutID: layoutID, Failures: failures, Reason: reason})
		metrics.BlacklistSize.Set(float64(c.tracker.Len()))
	}
	c.tracker.OnUnblacklisted = func(layoutID string) {
		c.bus.Publish(events.LayoutUnblacklisted{LayoutID: layoutID})
		metrics.BlacklistSize.Set(float64(c.tracker.Len()))
	}
	c.tracker.Report = func(layoutID, reason string) {
		if !c.reportLimit.Allow() {
			logging.Debug().Str("layout", layoutID).Msg("blacklist report throttled")
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.CMS.Timeout)
			defer cancel()
			if err := c.rpc.BlackList(ctx, layoutID, "layout", reason); err != nil {
				logging.Warn().Err(err).Str("layout", layoutID).Msg("blacklist report failed")
			}
		}()
	}
	return c
}

// Hydrate replays the offline snapshot into memory at startup. CRC tokens are
// deliberately not restored so the first online cycle refetches both
// manifests.
func (c *Core) Hydrate() error {
	snap, err := c.db.Load()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if snap.Settings != nil {
		c.settings = snap.Settings
		c.applySettingsLocked(snap.Settings)
	}
	if snap.Schedule != nil {
		c.sched = snap.Schedule
	}
	if snap.RequiredFiles != nil {
		c.required = snap.RequiredFiles
	}
	return nil
}

// Serve runs the orchestration loop: an immediate first collection, the
// periodic collection timer, and the independent fault-report ticker. It
// blocks until ctx is canceled; suture restarts it on panic.
func (c *Core) Serve(ctx context.Context) error {
	if err := c.Collect(ctx); err != nil {
		logging.Warn().Err(err).Msg("initial collection failed, retrying on timer")
	}

	collect := time.NewTimer(c.nextInterval())
	defer collect.Stop()
	faults := time.NewTicker(c.cfg.Player.FaultsInterval)
	defer faults.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case at := <-faults.C:
			c.bus.Publish(events.SubmitFaultsRequest{At: at})
			continue
		case <-c.kick:
			if err := c.Collect(ctx); err != nil {
				logging.Warn().Err(err).Msg("queued collection failed")
			}
		case <-collect.C:
			if err := c.Collect(ctx); err != nil {
				logging.Warn().Err(err).Msg("collection failed")
			}
		}

		if !collect.Stop() {
			select {
			case <-collect.C:
			default:
			}
		}
		collect.Reset(c.nextInterval())
	}
}

// String names the service in supervisor logs.
func (c *Core) String() string { return "player-core" }

// QueueCollect schedules an immediate collection on the next loop pass. Safe
// to call from any goroutine, including mid-cycle; the running cycle finishes
// first, which keeps scheduled collectNow commands from re-entering.
func (c *Core) QueueCollect() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// nextInterval returns the current collection timer period: the offline
// backoff while offline, the CMS-supplied interval otherwise.
func (c *Core) nextInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.offlineMode && c.retryInterval > 0 {
		return c.retryInterval
	}
	return c.collectInterval
}

// shutdown flushes final state before listeners detach.
func (c *Core) shutdown() {
	c.channel.Stop()
	c.mu.Lock()
	if c.revertTimer != nil {
		c.revertTimer.Stop()
		c.revertTimer = nil
	}
	c.mu.Unlock()
	c.bus.Publish(events.CleanupComplete{})
}

// Collect runs one collection cycle. Overlapping invocations return silently;
// the guard covers the entire cycle including transport suspensions.
func (c *Core) Collect(ctx context.Context) error {
	if !c.collecting.CompareAndSwap(false, true) {
		return nil
	}
	defer c.collecting.Store(false)

	c.attempt++
	start := c.now()
	c.bus.Publish(events.CollectionStart{Attempt: c.attempt, At: start})

	err := c.collectOnce(ctx)
	elapsed := c.now().Sub(start)
	metrics.CollectionDuration.Observe(elapsed.Seconds())

	if err == nil {
		c.attempt = 0
		metrics.CollectionsTotal.WithLabelValues("ok").Inc()
		c.bus.Publish(events.CollectionComplete{Offline: false, Duration: elapsed})
		return nil
	}

	if errors.Is(err, transport.ErrTransport) {
		if c.db.HasCachedData() {
			c.bus.Publish(events.CollectionError{Reason: err.Error()})
			c.enterOfflineMode()
			metrics.CollectionsTotal.WithLabelValues("offline").Inc()
			c.bus.Publish(events.CollectionComplete{Offline: true, Duration: c.now().Sub(start)})
			return nil
		}
		err = fmt.Errorf("%w: %v", ErrOfflineNoCache, err)
	}

	metrics.CollectionsTotal.WithLabelValues("error").Inc()
	c.bus.Publish(events.CollectionError{Reason: err.Error()})
	return err
}

// collectOnce is the happy-path cycle body. Any transport error aborts it and
// is classified by Collect.
func (c *Core) collectOnce(ctx context.Context) error {
	if _, err := c.db.HardwareKey(); err != nil {
		return err
	}

	reg, err := c.rpc.RegisterDisplay(ctx)
	if err != nil {
		return err
	}
	if !reg.Ready() {
		return fmt.Errorf("%w: code %q", ErrRegistrationRejected, reg.Code)
	}
	c.bus.Publish(events.RegisterComplete{Code: reg.Code, DisplayName: reg.DisplayName})

	c.db.Save(store.KeySettings, reg)

	c.mu.Lock()
	c.settings = reg
	c.applySettingsLocked(reg)
	wasOffline := c.offlineMode
	if wasOffline {
		c.offlineMode = false
		c.retryInterval = 0
	}
	c.mu.Unlock()
	if wasOffline {
		metrics.OfflineMode.Set(0)
		c.bus.Publish(events.OfflineMode{Offline: false})
	}

	c.ensurePush(ctx, reg)

	if err := c.refreshManifests(ctx, reg); err != nil {
		return err
	}

	c.refreshWeather(ctx)
	c.evaluateSchedule()
	c.runScheduledCommands(c.now())
	c.notifyStatus(ctx)
	c.bus.Publish(events.SubmitStatsRequest{At: c.now()})
	return nil
}

// applySettingsLocked folds CMS registration settings into runtime state.
// Caller holds mu.
func (c *Core) applySettingsLocked(reg *transport.RegistrationResult) {
	if v, ok := reg.Settings["collectInterval"]; ok {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 10 {
			c.collectInterval = time.Duration(secs) * time.Second
		}
	}
	if v, ok := reg.Settings["logLevel"]; ok && v != "" {
		logging.SetLevelString(v)
	}
	if v, ok := reg.Settings["statsEnabled"]; ok {
		c.statsEnabled = v == "1" || strings.EqualFold(v, "true")
	}
	c.downloadStart = reg.Settings["downloadStartWindow"]
	c.downloadEnd = reg.Settings["downloadEndWindow"]

	if reg.SyncConfig != nil {
		c.syncConfig = reg.SyncConfig
	}
	if len(reg.Commands) > 0 {
		c.commands = reg.Commands
	}

	// Tags of the form "key|value" map onto a fixed config allow-list.
	for _, tag := range reg.Tags {
		key, value, found := strings.Cut(tag, "|")
		if !found {
			continue
		}
		field, known := tagConfigKeys[key]
		if !known {
			continue
		}
		switch field {
		case "googleGeoApiKey":
			c.googleGeoAPIKey = value
		}
	}
}

// ensurePush validates the push address and starts or restarts the channel.
// Misconfiguration skips push for this cycle; collection continues.
func (c *Core) ensurePush(ctx context.Context, reg *transport.RegistrationResult) {
	address := reg.Settings["xmrWebSocketAddress"]
	if reason, ok := push.ValidateAddress(address); !ok {
		c.bus.Publish(events.PushMisconfigured{Reason: reason, Address: address})
		return
	}

	cmsKey := reg.Settings["xmrCmsKey"]
	if cmsKey == "" {
		cmsKey = c.cfg.CMS.Key
	}

	c.mu.Lock()
	started := c.pushStarted
	c.mu.Unlock()

	switch {
	case !started:
		if err := c.channel.Start(ctx, address, cmsKey); err != nil {
			logging.Warn().Err(err).Msg("push channel start failed")
			return
		}
		c.mu.Lock()
		c.pushStarted = true
		c.mu.Unlock()
		metrics.PushConnects.Inc()
		c.bus.Publish(events.PushConnected{Address: address})
	case !c.channel.IsConnected():
		if err := c.channel.Start(ctx, address, cmsKey); err != nil {
			logging.Warn().Err(err).Msg("push channel reconnect failed")
			return
		}
		metrics.PushReconnects.Inc()
		c.bus.Publish(events.PushReconnected{Address: address})
	}
}

// refreshManifests applies the CRC skip optimization: each manifest is only
// refetched when its change token moved.
func (c *Core) refreshManifests(ctx context.Context, reg *transport.RegistrationResult) error {
	c.mu.Lock()
	rfChanged := reg.CheckRf != c.lastCheckRf
	schedChanged := reg.CheckSchedule != c.lastCheckSchedule
	c.mu.Unlock()

	if rfChanged {
		// New content may fix what was failing.
		c.tracker.Reset()
		metrics.BlacklistSize.Set(0)

		rf, err := c.rpc.RequiredFiles(ctx)
		if err != nil {
			return err
		}
		c.db.Save(store.KeyRequiredFiles, rf)

		c.mu.Lock()
		c.required = rf
		c.lastCheckRf = reg.CheckRf
		c.mu.Unlock()

		c.bus.Publish(events.FilesReceived{FileCount: len(rf.Files)})
		if len(rf.Purge) > 0 {
			c.bus.Publish(events.PurgeRequest{Items: purgeItems(rf.Purge)})
		}
	}

	if schedChanged {
		sched, err := c.rpc.Schedule(ctx)
		if err != nil {
			return err
		}
		c.db.Save(store.KeySchedule, sched)

		c.mu.Lock()
		c.sched = sched
		c.lastCheckSchedule = reg.CheckSchedule
		c.executedCommands = make(map[string]struct{})
		connectors := len(sched.DataConnectors)
		c.mu.Unlock()

		c.bus.Publish(events.ScheduleReceived{
			LayoutCount:   len(sched.Layouts),
			CampaignCount: len(sched.Campaigns),
		})
		if connectors > 0 {
			logging.Info().Int("count", connectors).Msg("data connectors reconfigured")
		}
	}

	if rfChanged {
		c.emitDownloadRequest()

		c.mu.Lock()
		files := requiredFiles(c.required)
		c.mu.Unlock()
		c.bus.Publish(events.CacheAnalysis{Files: files})

		if err := c.rpc.MediaInventory(ctx, inventoryXML(c.requiredSnapshot(), c.now())); err != nil {
			logging.Warn().Err(err).Msg("media inventory submission failed")
		}
	}
	return nil
}

// emitDownloadRequest hands the cache the manifest plus the layout order the
// selector will play next, so the next layout's media downloads first. Only
// fires inside the configured download window, if any.
func (c *Core) emitDownloadRequest() {
	c.mu.Lock()
	inWindow := inDownloadWindow(c.downloadStart, c.downloadEnd, c.now())
	order := c.layoutOrderLocked()
	files := requiredFiles(c.required)
	deps := c.layoutDependantsLocked()
	c.mu.Unlock()

	if !inWindow {
		return
	}
	c.bus.Publish(events.DownloadRequest{
		LayoutOrder:      order,
		Files:            files,
		LayoutDependants: deps,
	})
}

// layoutOrderLocked rotates the scheduled layout files to start at the
// round-robin cursor. Caller holds mu.
func (c *Core) layoutOrderLocked() []string {
	if len(c.active) == 0 {
		return nil
	}
	order := make([]string, 0, len(c.active))
	for i := 0; i < len(c.active); i++ {
		order = append(order, c.active[(c.index+i)%len(c.active)].File)
	}
	return order
}

// layoutDependantsLocked maps layout files to their dependant resource ids.
// Caller holds mu.
func (c *Core) layoutDependantsLocked() map[string][]string {
	if c.sched == nil {
		return nil
	}
	deps := make(map[string][]string)
	add := func(l schedule.Layout) {
		if len(l.Dependants) > 0 {
			deps[l.File] = l.Dependants
		}
	}
	for _, campaign := range c.sched.Campaigns {
		for _, l := range campaign.Layouts {
			add(l)
		}
	}
	for _, l := range c.sched.Layouts {
		add(l)
	}
	if len(deps) == 0 {
		return nil
	}
	return deps
}

// refreshWeather fetches the weather snapshot for criteria metrics. Failures
// are swallowed; evaluation proceeds without weather.
func (c *Core) refreshWeather(ctx context.Context) {
	w, err := c.rpc.GetWeather(ctx)
	if err != nil {
		logging.Debug().Err(err).Msg("weather fetch failed, criteria proceed without it")
		return
	}
	c.mu.Lock()
	c.env.Weather = w
	c.mu.Unlock()
}

// evaluateSchedule runs the evaluator and feeds the result to the selector.
func (c *Core) evaluateSchedule() {
	c.mu.Lock()
	sched := c.sched
	env := c.env
	c.mu.Unlock()

	res := schedule.LayoutsNow(sched, c.now(), env, c.rateGate)

	files := make([]string, 0, len(res.Layouts))
	for _, l := range res.Layouts {
		files = append(files, l.File)
	}
	c.bus.Publish(events.LayoutsScheduled{Layouts: files})

	c.applyEvaluation(res)
}

// rateGate adapts the limiter to the evaluator, counting rejections.
func (c *Core) rateGate(layoutFile string, maxPlaysPerHour int) bool {
	if c.limiter.Allow(layoutFile, maxPlaysPerHour) {
		return true
	}
	metrics.RateLimitRejections.Inc()
	return false
}

// enterOfflineMode replays the cached schedule and arms the exponential
// backoff: 30 s, doubling each failed attempt, capped at the normal interval.
func (c *Core) enterOfflineMode() {
	c.mu.Lock()
	c.offlineMode = true
	if c.retryInterval == 0 {
		c.retryInterval = c.cfg.Player.OfflineRetryStart
	} else {
		c.retryInterval *= 2
	}
	if c.retryInterval > c.collectInterval {
		c.retryInterval = c.collectInterval
	}
	retry := c.retryInterval
	c.mu.Unlock()

	metrics.OfflineMode.Set(1)
	c.bus.Publish(events.OfflineMode{Offline: true, RetryInterval: retry})

	c.evaluateSchedule()
	c.runScheduledCommands(c.now())
}

// notifyStatus reports display health to the CMS. Failures are swallowed; the
// display keeps playing whatever it has.
func (c *Core) notifyStatus(ctx context.Context) {
	c.mu.Lock()
	status := transport.Status{
		CurrentLayoutID:    c.currentID,
		DeviceName:         c.cfg.CMS.DisplayName,
		DisplayName:        c.displayNameLocked(),
		LastCommandSuccess: c.lastCommandSuccess,
		Code:               c.statusCodeLocked(),
	}
	if !c.lastLayoutChange.IsZero() {
		status.LastLayoutChangeTime = c.lastLayoutChange.Format(time.RFC3339)
	}
	if c.env.Location != nil {
		lat, lng := c.env.Location.Latitude, c.env.Location.Longitude
		status.Latitude, status.Longitude = &lat, &lng
	}
	c.mu.Unlock()

	if err := c.rpc.NotifyStatus(ctx, status); err != nil {
		logging.Warn().Err(err).Msg("notify status failed")
		c.bus.Publish(events.StatusNotifyFailed{Reason: err.Error()})
	}
}

func (c *Core) displayNameLocked() string {
	if c.settings != nil && c.settings.DisplayName != "" {
		return c.settings.DisplayName
	}
	return c.cfg.CMS.DisplayName
}

// statusCodeLocked grades display health: 1 ok, 2 degraded, 3 fault.
func (c *Core) statusCodeLocked() int {
	switch {
	case c.currentID == "" && len(c.active) == 0:
		return 3
	case c.tracker.Len() > 0 || !c.lastCommandSuccess:
		return 2
	default:
		return 1
	}
}

// Status is the loopback API snapshot of orchestration state.
type Status struct {
	CurrentLayoutID  string            `json:"current_layout_id"`
	ActiveLayouts    []string          `json:"active_layouts"`
	Offline          bool              `json:"offline"`
	RetryInterval    time.Duration     `json:"retry_interval,omitempty"`
	CollectInterval  time.Duration     `json:"collect_interval"`
	PushConnected    bool              `json:"push_connected"`
	Overridden       bool              `json:"overridden"`
	Blacklist        []blacklist.Entry `json:"blacklist,omitempty"`
	LastLayoutChange time.Time         `json:"last_layout_change,omitempty"`
}

// StatusSnapshot returns the current orchestration state for the loopback
// status API.
func (c *Core) StatusSnapshot() Status {
	c.mu.Lock()
	s := Status{
		CurrentLayoutID:  c.currentID,
		Offline:          c.offlineMode,
		RetryInterval:    c.retryInterval,
		CollectInterval:  c.collectInterval,
		Overridden:       c.ovr != nil,
		LastLayoutChange: c.lastLayoutChange,
	}
	for _, l := range c.active {
		s.ActiveLayouts = append(s.ActiveLayouts, l.File)
	}
	c.mu.Unlock()

	s.PushConnected = c.channel.IsConnected()
	s.Blacklist = c.tracker.Snapshot()
	return s
}

// ScheduleSnapshot returns the schedule and environment for the timeline
// predictor.
func (c *Core) ScheduleSnapshot() (*schedule.Schedule, schedule.Env) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched, c.env
}

// IsLayoutOverridden reports whether an override is driving selection.
func (c *Core) IsLayoutOverridden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ovr != nil
}

func purgeItems(items []transport.PurgeItem) []events.PurgeItem {
	out := make([]events.PurgeItem, len(items))
	for i, p := range items {
		out[i] = events.PurgeItem{ID: p.ID, StoredAs: p.StoredAs}
	}
	return out
}

func requiredFiles(rf *transport.RequiredFilesResult) []events.RequiredFile {
	if rf == nil {
		return nil
	}
	out := make([]events.RequiredFile, len(rf.Files))
	for i, f := range rf.Files {
		out[i] = events.RequiredFile{
			ID:         f.ID,
			Type:       f.Type,
			Path:       f.Path,
			MD5:        f.MD5,
			Size:       f.Size,
			Dependants: f.Dependants,
		}
	}
	return out
}

func (c *Core) requiredSnapshot() *transport.RequiredFilesResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.required
}

// inventoryXML renders the media-inventory payload the CMS expects.
func inventoryXML(rf *transport.RequiredFilesResult, now time.Time) string {
	var b strings.Builder
	b.WriteString("<files>")
	if rf != nil {
		checked := strconv.FormatInt(now.Unix(), 10)
		for _, f := range rf.Files {
			b.WriteString(`<file type="`)
			b.WriteString(f.Type)
			b.WriteString(`" id="`)
			b.WriteString(f.ID)
			b.WriteString(`" complete="1" md5="`)
			b.WriteString(f.MD5)
			b.WriteString(`" lastChecked="`)
			b.WriteString(checked)
			b.WriteString(`" />`)
		}
	}
	b.WriteString("</files>")
	return b.String()
}

// inDownloadWindow tests a "15:04".."15:04" window against the clock. An
// unset window always admits; a window wrapping midnight admits both sides.
func inDownloadWindow(start, end string, now time.Time) bool {
	if start == "" || end == "" {
		return true
	}
	s, err1 := time.Parse("15:04", start)
	e, err2 := time.Parse("15:04", end)
	if err1 != nil || err2 != nil {
		return true
	}
	nowMin := now.Hour()*60 + now.Minute()
	startMin := s.Hour()*60 + s.Minute()
	endMin := e.Hour()*60 + e.Minute()
	if startMin <= endMin {
		return nowMin >= startMin && nowMin <= endMin
	}
	return nowMin >= startMin || nowMin <= endMin
}

// sortedExecutedCommands exists for tests and the status API.
func (c *Core) sortedExecutedCommands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.executedCommands))
	for k := range c.executedCommands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
