package fetch

import (
	"context"

	"github.com/chromedp/chromedp"
)

// BrowserPool owns one headless Chrome process and hands out tab slots.
// Sized to the run's concurrency bound: browser tabs are the expensive
// resource, so a worker holds a slot only for the duration of one page.
type BrowserPool struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	slots    chan struct{}
}

func NewBrowserPool(parent context.Context, size int) *BrowserPool {
	if size <= 0 {
		size = 1
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.NoSandbox,
	)
	allocCtx, cancel := chromedp.NewExecAllocator(parent, opts...)

	slots := make(chan struct{}, size)
	for i := 0; i < size; i++ {
		slots <- struct{}{}
	}
	return &BrowserPool{allocCtx: allocCtx, cancel: cancel, slots: slots}
}

func (p *BrowserPool) acquire(ctx context.Context) error {
	select {
	case <-p.slots:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *BrowserPool) release() {
	p.slots <- struct{}{}
}

func (p *BrowserPool) Close() {
	p.cancel()
}
