package main

import (
	"context"
	"fmt"
	"io"
	stdslog "log/slog"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/ddbsession"
	"github.com/unkn0wn-root/ddbsession/codec"
	asynchook "github.com/unkn0wn-root/ddbsession/hooks/async"
	logruslog "github.com/unkn0wn-root/ddbsession/log/logrus"
	slogadapter "github.com/unkn0wn-root/ddbsession/log/slog"
	zaplog "github.com/unkn0wn-root/ddbsession/log/zap"
	"github.com/unkn0wn-root/ddbsession/sloghooks"
	"github.com/unkn0wn-root/ddbsession/store"
	"github.com/unkn0wn-root/ddbsession/store/dynamo"
	redisstore "github.com/unkn0wn-root/ddbsession/store/redis"
)

type app struct {
	backend *ddbsession.Backend
	hooks   *asynchook.Hooks // nil unless --log-hooks
	sync    func() error     // flushes buffered logs
	touch   bool
	attr    string
}

func newApp(v *viper.Viper, logOut io.Writer) (*app, error) {
	log, sync, err := newLogger(v.GetString("logger"), v.GetString("log-level"), logOut)
	if err != nil {
		return nil, err
	}

	st, hashKey, err := newStore(v)
	if err != nil {
		return nil, err
	}

	a := &app{sync: sync, touch: v.GetBool("touch"), attr: v.GetString("accessed-attr")}
	opts := ddbsession.Options{
		Store:            st,
		HashKey:          hashKey,
		AccessedTimeAttr: a.attr,
		Logger:           log,
	}
	if v.GetBool("log-hooks") {
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
			return nil, err
		}
		h := stdslog.NewTextHandler(logOut, &stdslog.HandlerOptions{Level: lvl})
		raw := sloghooks.New(stdslog.New(h), sloghooks.Options{})
		a.hooks = asynchook.New(raw, 1, 64)
		opts.Hooks = a.hooks
	}
	a.backend, err = ddbsession.New(opts)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) close(ctx context.Context) error {
	err := a.backend.Close(ctx)
	if a.hooks != nil {
		a.hooks.Close()
	}
	if a.sync != nil {
		_ = a.sync()
	}
	return err
}

func newStore(v *viper.Viper) (store.Store, string, error) {
	switch b := v.GetString("backend"); b {
	case "dynamodb":
		cfg, err := dynamo.FromMap(dynamoOptions(v))
		if err != nil {
			return nil, "", err
		}
		st, err := dynamo.Open(cfg)
		if err != nil {
			return nil, "", err
		}
		return st, cfg.HashKey, nil
	case "redis":
		c, err := fieldCodec(v.GetString("redis-codec"))
		if err != nil {
			return nil, "", err
		}
		st := redisstore.New(
			v.GetString("redis-addr"),
			v.GetString("redis-password"),
			v.GetInt("redis-db"),
			redisstore.WithPrefix(v.GetString("redis-prefix")),
			redisstore.WithCodec(codec.Limit[any]{Inner: c, MaxDecode: v.GetInt("redis-max-value")}),
		)
		return st, v.GetString("hash-key"), nil
	default:
		return nil, "", fmt.Errorf("unknown backend %q (want dynamodb or redis)", b)
	}
}

func fieldCodec(name string) (codec.Codec[any], error) {
	switch name {
	case "msgpack":
		return codec.Msgpack[any]{}, nil
	case "json":
		return codec.JSON[any]{}, nil
	case "cbor":
		c, err := codec.NewCBOR[any](true)
		return c, err
	case "proto":
		return codec.ProtoValue{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (want msgpack, json, cbor or proto)", name)
	}
}

func newLogger(kind, level string, out io.Writer) (ddbsession.Logger, func() error, error) {
	switch kind {
	case "", "none":
		return nil, nil, nil
	case "zap":
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, nil, err
		}
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		l := zap.New(zapcore.NewCore(enc, zapcore.AddSync(out), lvl))
		return zaplog.New(l), l.Sync, nil
	case "logrus":
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, nil, err
		}
		l := logrus.New()
		l.SetOutput(out)
		l.SetLevel(lvl)
		return logruslog.New(l), nil, nil
	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, err
		}
		l := stdslog.New(stdslog.NewTextHandler(out, &stdslog.HandlerOptions{Level: lvl}))
		return slogadapter.New(l), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown logger %q (want none, zap, logrus or slog)", kind)
	}
}
