package gpio

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/sesame-gateway/internal/logic"
)

// Poller synthesizes edges by sampling sensor levels at a fixed interval,
// for boards or kernels without edge event support.
// The first sample only establishes the baseline.
type Poller struct {
	src    LevelReader
	closer func() error
	log    *zap.Logger
	now    func() time.Time

	edges  chan logic.Edge
	last   [2]bool
	primed bool

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewPoller wraps src. closeFn, if non-nil, is called by Close to release
// the underlying lines.
func NewPoller(src LevelReader, closeFn func() error, log *zap.Logger) *Poller {
	return &Poller{
		src:    src,
		closer: closeFn,
		log:    log,
		now:    time.Now,
		edges:  make(chan logic.Edge, edgeBuffer),
		stop:   make(chan struct{}),
	}
}

// Start takes the baseline sample, then samples every interval until Close.
// Any change after Start returns becomes an edge.
func (p *Poller) Start(interval time.Duration) {
	if err := p.Sample(); err != nil {
		p.log.Warn("sensor baseline failed", zap.Error(err))
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				if err := p.Sample(); err != nil {
					p.log.Warn("sensor poll failed", zap.Error(err))
				}
			}
		}
	}()
}

// Sample reads both channels once and emits an edge for each change since
// the previous sample.
func (p *Poller) Sample() error {
	var levels [2]bool
	for _, ch := range []logic.Channel{logic.ChannelOpened, logic.ChannelClosed} {
		v, err := p.src.Level(ch)
		if err != nil {
			return fmt.Errorf("poll %s: %w", ch, err)
		}
		levels[ch] = v
	}

	if !p.primed {
		p.last = levels
		p.primed = true
		return nil
	}

	t := p.now()
	for _, ch := range []logic.Channel{logic.ChannelOpened, logic.ChannelClosed} {
		if levels[ch] == p.last[ch] {
			continue
		}
		dir := logic.DirectionFalling
		if levels[ch] {
			dir = logic.DirectionRising
		}
		select {
		case p.edges <- logic.Edge{Channel: ch, Direction: dir, Time: t}:
		case <-p.stop:
			return nil
		}
	}
	p.last = levels
	return nil
}

// Level implements LevelReader.
func (p *Poller) Level(ch logic.Channel) (bool, error) {
	return p.src.Level(ch)
}

// Edges implements Sensors.
func (p *Poller) Edges() <-chan logic.Edge {
	return p.edges
}

// Close stops sampling and releases the underlying source.
func (p *Poller) Close() error {
	var err error
	p.once.Do(func() {
		close(p.stop)
		p.wg.Wait()
		if p.closer != nil {
			err = p.closer()
		}
	})
	return err
}
