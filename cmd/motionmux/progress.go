package main

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"motionmux/internal/migrate"
)

// progressObserver draws one bar tick per finished pair or copy.
type progressObserver struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (p *progressObserver) start(total int) {
	if total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("Migrating"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) ItemDone(item migrate.ItemResult) {
	if p.bar == nil {
		return
	}
	if item.Base != "" {
		p.bar.Describe("Migrating " + item.Base)
	}
	_ = p.bar.Add(1)
}

func (p *progressObserver) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}
