package service

import (
	"context"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
)

// Carousel 首頁精選商品輪播
// 手動切換時重新計時，時間不需精確
type Carousel struct {
	interval time.Duration
	onChange func(index int, p model.Product)

	mu      sync.Mutex
	slides  []model.Product
	index   int
	timer   *time.Timer
	gen     uint64
	running bool
	// Stop 關閉，讓等待 ctx 的 goroutine 結束
	done chan struct{}
}

func NewCarousel(slides []model.Product, interval time.Duration, onChange func(index int, p model.Product)) *Carousel {
	if interval <= 0 {
		interval = constants.DefaultCarouselInterval
	}
	return &Carousel{
		interval: interval,
		onChange: onChange,
		slides:   append([]model.Product(nil), slides...),
	}
}

// Start 開始自動輪播，ctx 結束時停止
func (c *Carousel) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	done := make(chan struct{})
	c.done = done
	c.resetLocked()
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			current := c.done == done
			c.mu.Unlock()
			// 已被 Stop 並重新 Start 的話不影響新的輪播
			if current {
				c.Stop()
			}
		case <-done:
		}
	}()
}

func (c *Carousel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// SetSlides 目錄更新後替換內容，索引回到第一張
func (c *Carousel) SetSlides(slides []model.Product) {
	c.mu.Lock()
	c.slides = append([]model.Product(nil), slides...)
	c.index = 0
	c.resetLocked()
	c.mu.Unlock()
}

func (c *Carousel) Next() { c.move(1) }

func (c *Carousel) Prev() { c.move(-1) }

func (c *Carousel) GoTo(index int) {
	c.mu.Lock()
	n := len(c.slides)
	if n == 0 {
		c.mu.Unlock()
		return
	}
	c.index = ((index % n) + n) % n
	c.resetLocked()
	idx, p := c.index, c.slides[c.index]
	c.mu.Unlock()
	c.emit(idx, p)
}

func (c *Carousel) Current() (int, model.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slides) == 0 {
		return 0, model.Product{}, false
	}
	return c.index, c.slides[c.index], true
}

func (c *Carousel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slides)
}

func (c *Carousel) move(step int) {
	c.mu.Lock()
	n := len(c.slides)
	if n == 0 {
		c.mu.Unlock()
		return
	}
	c.index = ((c.index+step)%n + n) % n
	c.resetLocked()
	idx, p := c.index, c.slides[c.index]
	c.mu.Unlock()
	c.emit(idx, p)
}

// tick gen 不同代表計時已被重設，舊的觸發直接丟棄
func (c *Carousel) tick(gen uint64) {
	c.mu.Lock()
	if !c.running || gen != c.gen || len(c.slides) == 0 {
		c.mu.Unlock()
		return
	}
	c.index = (c.index + 1) % len(c.slides)
	c.timer = time.AfterFunc(c.interval, func() { c.tick(gen) })
	idx, p := c.index, c.slides[c.index]
	c.mu.Unlock()
	c.emit(idx, p)
}

// resetLocked 取消目前的計時並重新開始
func (c *Carousel) resetLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !c.running || len(c.slides) < 2 {
		return
	}
	gen := c.gen
	c.timer = time.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Carousel) emit(index int, p model.Product) {
	if c.onChange != nil {
		c.onChange(index, p)
	}
}
