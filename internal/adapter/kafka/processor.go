package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
	"github.com/niksmo/shopwave/pkg/schema"
)

var (
	_ port.AvailabilityProcessor = (*AvailabilityProcessor)(nil)
	_ port.AvailabilityChecker   = (*AvailabilityView)(nil)
	_ port.AvailabilityEmitter   = (*AvailabilityEmitter)(nil)
)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// An availabilityEventCodec used for serde [schema.AvailabilityV1]
type availabilityEventCodec struct {
	serde Serde
}

func newAvailabilityEventCodec(s Serde) availabilityEventCodec {
	return availabilityEventCodec{s}
}

func (c availabilityEventCodec) Encode(v any) ([]byte, error) {
	const op = "availabilityEventCodec.Encode"
	if _, ok := v.(schema.AvailabilityV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c availabilityEventCodec) Decode(data []byte) (any, error) {
	const op = "availabilityEventCodec.Decode"
	var s schema.AvailabilityV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// An activeValue is the stored availability of a particular product.
type activeValue bool

// An activeValueCodec used for serde [activeValue]
type activeValueCodec struct{}

func (activeValueCodec) Encode(v any) ([]byte, error) {
	const op = "activeValueCodec.Encode"
	av, ok := v.(activeValue)
	if !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	data := strconv.AppendBool([]byte(nil), bool(av))
	return data, nil
}

func (activeValueCodec) Decode(data []byte) (any, error) {
	const op = "activeValueCodec.Decode"
	av, err := strconv.ParseBool(string(data))
	if err != nil {
		return nil, opErr(err, op)
	}
	return activeValue(av), nil
}

// An AvailabilityProcessor proccess availability events
// from stream topic to group table keyed by product ID.
type AvailabilityProcessor struct {
	opPrefix string
	proc     processor
}

func NewAvailabilityProcessor(
	seedBrokers []string,
	inputStream string,
	groupTable string,
	availabilitySerde Serde,
) (*AvailabilityProcessor, error) {
	const op = "NewAvailabilityProcessor"

	p := &AvailabilityProcessor{opPrefix: "AvailabilityProcessor"}

	gg := goka.DefineGroup(goka.Group(groupTable),
		goka.Input(
			goka.Stream(inputStream),
			newAvailabilityEventCodec(availabilitySerde),
			p.processFn,
		),
		goka.Persist(activeValueCodec{}),
	)

	gp, err := goka.NewProcessor(seedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}

	return p, nil
}

func (p *AvailabilityProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *AvailabilityProcessor) Close() {
	p.proc.close()
}

func (p *AvailabilityProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op))

	event, ok := msg.(schema.AvailabilityV1)
	if !ok {
		log.Error("unexpected message", "type", fmt.Sprintf("%T", msg))
		return
	}

	if ctx.Key() != productKey(event.ProductID) {
		log.Warn(
			"key does not match product",
			"key", ctx.Key(), "productID", event.ProductID,
		)
	}

	v := activeValue(event.Active)
	ctx.SetValue(v)
	log.Info(
		"set availability",
		"productID", event.ProductID,
		"isActive", v,
	)
}

// An AvailabilityView reads the availability group table.
type AvailabilityView struct {
	opPrefix string
	gv       *goka.View
}

func NewAvailabilityView(
	seedBrokers []string, groupTable string,
) (*AvailabilityView, error) {
	const op = "NewAvailabilityView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(groupTable)),
		activeValueCodec{},
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &AvailabilityView{opPrefix: "AvailabilityView", gv: gv}, nil
}

func (v *AvailabilityView) Run(ctx context.Context) {
	const op = "Run"
	log := slog.With("op", makeOp(v.opPrefix, op))

	log.Info("running")
	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

// IsAvailable reports false only for products explicitly deactivated.
// Unknown products and read failures keep the product in the catalog.
func (v *AvailabilityView) IsAvailable(productID int64) bool {
	const op = "IsAvailable"

	value, err := v.gv.Get(productKey(productID))
	if err != nil {
		slog.Warn(
			"failed to get view data",
			"op", makeOp(v.opPrefix, op), "err", err,
		)
		return true
	}

	av, ok := value.(activeValue)
	if !ok {
		return true
	}
	return bool(av)
}

// An AvailabilityEmitter writes availability events to the stream topic.
type AvailabilityEmitter struct {
	opPrefix string
	ge       *goka.Emitter
}

func NewAvailabilityEmitter(
	seedBrokers []string, stream string, availabilitySerde Serde,
) (*AvailabilityEmitter, error) {
	const op = "NewAvailabilityEmitter"

	ge, err := goka.NewEmitter(
		seedBrokers,
		goka.Stream(stream),
		newAvailabilityEventCodec(availabilitySerde),
	)
	if err != nil {
		return nil, opErr(err, op)
	}
	return &AvailabilityEmitter{opPrefix: "AvailabilityEmitter", ge: ge}, nil
}

func (e *AvailabilityEmitter) EmitAvailability(
	ctx context.Context, pa domain.ProductAvailability,
) error {
	const op = "EmitAvailability"

	if err := ctx.Err(); err != nil {
		return opErr(err, e.opPrefix, op)
	}

	err := e.ge.EmitSync(productKey(pa.ProductID), toAvailabilitySchema(pa))
	if err != nil {
		return opErr(err, e.opPrefix, op)
	}
	return nil
}

func (e *AvailabilityEmitter) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(e.opPrefix, op))

	log.Info("closing emitter...")
	if err := e.ge.Finish(); err != nil {
		log.Error("failed to finish gracefully", "err", err)
		return
	}
	log.Info("emitter is closed")
}

func toAvailabilitySchema(pa domain.ProductAvailability) schema.AvailabilityV1 {
	return schema.AvailabilityV1{
		ProductID: pa.ProductID,
		Active:    pa.Active,
	}
}
