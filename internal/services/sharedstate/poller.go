package sharedstate

import (
	"sync"
	"time"

	"github.com/iwtcode/linacService/internal/middleware/logging"
)

type activePoll struct {
	ticker *time.Ticker
	done   chan bool
}

// Poller периодически перечитывает сценарии с подписчиками и сообщает об изменениях,
// сделанных другими процессами.
type Poller struct {
	channel  *Channel
	interval time.Duration
	logger   *logging.Logger

	pollMutex sync.Mutex
	active    *activePoll
}

func NewPoller(channel *Channel, interval time.Duration, logger *logging.Logger) *Poller {
	return &Poller{
		channel:  channel,
		interval: interval,
		logger:   logger.WithPrefix("POLLER"),
	}
}

func (p *Poller) IsActive() bool {
	p.pollMutex.Lock()
	defer p.pollMutex.Unlock()
	return p.active != nil
}

// Start запускает горутину опроса. Интервал <= 0 отключает опрос.
func (p *Poller) Start() {
	p.pollMutex.Lock()
	defer p.pollMutex.Unlock()

	if p.active != nil || p.interval <= 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	done := make(chan bool)
	p.active = &activePoll{ticker: ticker, done: done}

	go func() {
		p.logger.Info("Starting polling goroutine", "interval", p.interval)
		defer func() {
			p.logger.Info("Polling goroutine stopped")
		}()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p.Tick()
			}
		}
	}()
}

// Tick выполняет один проход опроса
func (p *Poller) Tick() {
	for _, scenarioID := range p.channel.subscribed() {
		p.channel.refresh(scenarioID, false)
	}
}

func (p *Poller) Stop() {
	p.pollMutex.Lock()
	defer p.pollMutex.Unlock()

	if p.active == nil {
		return
	}
	p.active.ticker.Stop()
	p.active.done <- true
	close(p.active.done)
	p.active = nil
}
