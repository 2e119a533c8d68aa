// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package livedata

// Logger is the logging interface used by values and lifecycles.
// It is satisfied by *slog.Logger and by most structured loggers.
//
// Only debug level is used: subscriptions, removals, source plugging and
// lifecycle transitions.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const (
	logMsgObserverAdded     = "livedata: observer added"
	logMsgObserverRemoved   = "livedata: observer removed"
	logMsgObserverIgnored   = "livedata: observer ignored, owner destroyed"
	logMsgSourcePlugged     = "livedata: source plugged"
	logMsgSourceUnplugged   = "livedata: source unplugged"
	logMsgLifecycleMoved    = "livedata: lifecycle state changed"
	logMsgDispatchRestarted = "livedata: dispatch invalidated, restarting"

	logAttrName         = "name"
	logAttrSubscription = "subscription"
	logAttrMode         = "mode"
	logAttrFrom         = "from"
	logAttrTo           = "to"
)

type options struct {
	name   string
	logger Logger
}

// Option configures a Mutable, Mediator or Lifecycle.
type Option func(*options)

// WithName sets the name reported in log messages.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *options) debug(msg string, args ...any) {
	if o.logger == nil {
		return
	}
	if o.name != "" {
		args = append([]any{logAttrName, o.name}, args...)
	}
	o.logger.Debug(msg, args...)
}
