package logger

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// zlHandler forwards slog records to zerolog, keeping context fields
// added with the With* helpers.
type zlHandler struct {
	zl     *zerolog.Logger
	attr   []slog.Attr
	prefix string
}

func NewSlog(zl *zerolog.Logger) *slog.Logger {
	return slog.New(&zlHandler{zl: zl})
}

func (h *zlHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	return zerologLevel(lvl) >= zerolog.GlobalLevel()
}

func (h *zlHandler) Handle(ctx context.Context, r slog.Record) error {
	base := FromContext(ctx, h.zl)

	var ev *zerolog.Event
	switch zerologLevel(r.Level) {
	case zerolog.DebugLevel:
		ev = base.Debug()
	case zerolog.WarnLevel:
		ev = base.Warn()
	case zerolog.ErrorLevel:
		ev = base.Error()
	default:
		ev = base.Info()
	}

	for _, a := range h.attr {
		ev = addAttr(ev, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = addAttr(ev, h.prefix, a)
		return true
	})

	ev.Msg(r.Message)
	return nil
}

func (h *zlHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attr = make([]slog.Attr, 0, len(h.attr)+len(attrs))
	cp.attr = append(cp.attr, h.attr...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		cp.attr = append(cp.attr, a)
	}
	return &cp
}

func (h *zlHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.prefix = h.prefix + name + "."
	return &cp
}

func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l <= slog.LevelDebug:
		return zerolog.DebugLevel
	case l >= slog.LevelError:
		return zerolog.ErrorLevel
	case l >= slog.LevelWarn:
		return zerolog.WarnLevel
	}
	return zerolog.InfoLevel
}

func addAttr(ev *zerolog.Event, prefix string, a slog.Attr) *zerolog.Event {
	a.Value = a.Value.Resolve()
	key := prefix + a.Key
	switch a.Value.Kind() {
	case slog.KindString:
		return ev.Str(key, a.Value.String())
	case slog.KindInt64:
		return ev.Int64(key, a.Value.Int64())
	case slog.KindUint64:
		return ev.Uint64(key, a.Value.Uint64())
	case slog.KindFloat64:
		return ev.Float64(key, a.Value.Float64())
	case slog.KindBool:
		return ev.Bool(key, a.Value.Bool())
	case slog.KindDuration:
		return ev.Dur(key, a.Value.Duration())
	case slog.KindTime:
		return ev.Time(key, a.Value.Time())
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			ev = addAttr(ev, key+".", ga)
		}
		return ev
	default:
		return ev.Interface(key, a.Value.Any())
	}
}
