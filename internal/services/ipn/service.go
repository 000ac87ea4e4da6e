package ipn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/membership-ipn/internal/lib/sl"
	"github.com/magabrotheeeer/membership-ipn/internal/lib/validity"
	"github.com/magabrotheeeer/membership-ipn/internal/metrics"
	"github.com/magabrotheeeer/membership-ipn/internal/models"
	"github.com/magabrotheeeer/membership-ipn/internal/paymentprovider"
)

// Outcome итог обработки уведомления.
type Outcome string

const (
	OutcomeProcessed Outcome = Outcome(metrics.OutcomeProcessed)
	OutcomeIgnored   Outcome = Outcome(metrics.OutcomeIgnored)
	OutcomeDuplicate Outcome = Outcome(metrics.OutcomeDuplicate)
	OutcomeNoop      Outcome = Outcome(metrics.OutcomeNoop)
)

// Result результат обработки уведомления.
type Result struct {
	Outcome      Outcome
	SubscriberID int64
	Created      bool
}

// Config настройки сервиса.
type Config struct {
	// ProductsToIgnore product id, уведомления по которым пропускаются.
	ProductsToIgnore []string
	// Location часовой пояс, в котором считается "сегодня".
	Location *time.Location
	// Now источник времени, по умолчанию time.Now.
	Now func() time.Time
	// Credentials генератор паролей новых подписчиков, по умолчанию bcrypt.
	Credentials Credentials
}

// Service обрабатывает платёжные уведомления.
type Service struct {
	log         *slog.Logger
	store       Store
	ledger      Ledger
	relay       Relayer
	notifier    Notifier
	validate    *validator.Validate
	ignore      []string
	location    *time.Location
	now         func() time.Time
	credentials Credentials
}

// New создаёт сервис. ledger, relay и notifier могут быть nil.
func New(log *slog.Logger, store Store, ledger Ledger, relay Relayer, notifier Notifier, cfg Config) *Service {
	s := &Service{
		log:         log,
		store:       store,
		ledger:      ledger,
		relay:       relay,
		notifier:    notifier,
		validate:    validator.New(),
		ignore:      cfg.ProductsToIgnore,
		location:    cfg.Location,
		now:         cfg.Now,
		credentials: cfg.Credentials,
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.credentials == nil {
		s.credentials = defaultCredentials
	}
	return s
}

// Process применяет транзакцию провайдера к подписчику.
// Все изменения и записи аудита фиксируются одной транзакцией хранилища.
// Пересылка вебхука и публикация событий выполняются только после фиксации.
func (s *Service) Process(
	ctx context.Context,
	provider paymentprovider.Provider,
	rec models.TransactionRecord,
	raw models.RawPayload,
) (Result, error) {
	const op = "ipn.Process"

	log := s.log.With(
		slog.String("op", op),
		slog.String("provider", provider.String()),
		slog.String("trans_id", rec.TransID),
		slog.String("trans_type", rec.TransType),
		slog.String("product_id", rec.ProductID),
	)

	if slices.Contains(s.ignore, rec.ProductID) {
		log.Info("the product is listed on the ignore list")
		return Result{Outcome: OutcomeIgnored}, nil
	}

	if err := s.validate.Struct(rec); err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, reject(ErrValidation, "invalid transaction: %s", describe(err)))
	}

	kind, err := Classify(rec.TransType)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	claimed, duplicate := s.claim(ctx, log, provider, rec)
	if duplicate {
		log.Info("transaction already processed")
		return Result{Outcome: OutcomeDuplicate}, nil
	}

	now := s.now().UTC()
	today := validity.Today(now, s.location)

	var (
		res    Result
		plan   *models.Plan
		events []models.SubscriberEvent
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		res, plan, events, err = s.apply(ctx, tx, log, provider, rec, kind, now, today)
		return err
	})
	if err != nil {
		if claimed != "" {
			if rerr := s.ledger.Release(ctx, claimed); rerr != nil {
				log.Warn("failed to release transaction key", sl.Err(rerr))
			}
		}
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Transitions.WithLabelValues(provider.String(), kind.String()).Inc()

	for _, ev := range events {
		s.publish(ctx, log, ev)
	}

	if plan != nil && plan.ForwardToURL != "" && s.relay != nil {
		s.relay.Forward(plan.ForwardToURL, raw)
		log.Info("IPN re-posted", slog.String("url", plan.ForwardToURL))
	}

	log.Info("IPN done", slog.String("outcome", string(res.Outcome)), slog.Int64("subscriber_id", res.SubscriberID))
	return res, nil
}

func (s *Service) apply(
	ctx context.Context,
	tx Tx,
	log *slog.Logger,
	provider paymentprovider.Provider,
	rec models.TransactionRecord,
	kind Kind,
	now, today time.Time,
) (Result, *models.Plan, []models.SubscriberEvent, error) {
	plan, found, err := tx.PlanByProductID(ctx, rec.ProductID)
	if err != nil {
		return Result{}, nil, nil, err
	}
	if !found {
		return Result{}, nil, nil, reject(ErrNoPlanForProduct, "Cannot find group with product_id %q", rec.ProductID)
	}

	r, err := resolveSubscriber(ctx, tx, s.credentials, provider, rec, now, today)
	if err != nil {
		return Result{}, nil, nil, err
	}
	sub := r.Subscriber

	var events []models.SubscriberEvent
	if r.Created {
		log.Info(r.Comment)
		events = append(events, newEvent(models.EventSubscriberCreated, sub, r.Comment, r.Password))
	}

	res := Result{Outcome: OutcomeProcessed, SubscriberID: sub.ID, Created: r.Created}

	if kind == KindNoop {
		log.Info("nothing to do, subscriber is disabled when the subscription runs out")
		res.Outcome = OutcomeNoop
		return res, plan, events, nil
	}

	system, err := loadSystemPlans(ctx, tx)
	if err != nil {
		return Result{}, nil, nil, err
	}

	change := Apply(sub, *plan, system, kind, today)
	if !change.Changed {
		return res, plan, events, nil
	}

	if err := tx.SaveSubscriber(ctx, sub); err != nil {
		return Result{}, nil, nil, err
	}

	if !change.Audited() {
		log.Info("refund is part of a completed upgrade, subscriber left enabled")
		return res, plan, events, nil
	}

	comment := Comment(change.Action, provider, rec.TransID, rec.TransType, change.Note)
	if _, err := tx.AppendAuditEntry(ctx, models.AuditEntry{
		SubscriberID: sub.ID,
		EventType:    change.Event,
		Timestamp:    now,
		Comment:      comment,
	}); err != nil {
		return Result{}, nil, nil, err
	}
	log.Info(comment)

	events = append(events, newEvent(change.Event, sub, comment, ""))
	return res, plan, events, nil
}

func loadSystemPlans(ctx context.Context, tx Tx) (SystemPlans, error) {
	enabled, found, err := tx.PlanByName(ctx, models.PlanEnabled)
	if err != nil {
		return SystemPlans{}, err
	}
	if !found {
		return SystemPlans{}, fmt.Errorf("%w: %s", ErrPlanNotConfigured, models.PlanEnabled)
	}
	trial, found, err := tx.PlanByName(ctx, models.PlanTrial)
	if err != nil {
		return SystemPlans{}, err
	}
	if !found {
		return SystemPlans{}, fmt.Errorf("%w: %s", ErrPlanNotConfigured, models.PlanTrial)
	}
	return SystemPlans{Enabled: *enabled, Trial: *trial}, nil
}

// claim занимает ключ транзакции в журнале обработанных транзакций.
// Возвращает занятый ключ (пустой, если журнал не используется) и признак повтора.
// Ошибки журнала не мешают обработке.
func (s *Service) claim(ctx context.Context, log *slog.Logger, provider paymentprovider.Provider, rec models.TransactionRecord) (string, bool) {
	if s.ledger == nil || rec.TransID == "" {
		return "", false
	}
	key := LedgerKey(provider, rec)
	ok, err := s.ledger.Claim(ctx, key)
	if err != nil {
		log.Warn("transaction ledger unavailable, processing without deduplication", sl.Err(err))
		return "", false
	}
	if !ok {
		return "", true
	}
	return key, false
}

// LedgerKey ключ транзакции в журнале обработанных транзакций.
func LedgerKey(provider paymentprovider.Provider, rec models.TransactionRecord) string {
	return fmt.Sprintf("ipn:%s:%s:%s", provider, rec.TransID, rec.TransType)
}

func (s *Service) publish(ctx context.Context, log *slog.Logger, ev models.SubscriberEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		log.Error("failed to publish subscriber event", slog.String("event", string(ev.Type)), sl.Err(err))
	}
}

func newEvent(typ models.EventType, sub *models.Subscriber, comment, plainPassword string) models.SubscriberEvent {
	return models.SubscriberEvent{
		Type:     typ,
		UID:      sub.UID,
		Email:    sub.Email,
		Fullname: sub.Fullname,
		Password: plainPassword,
		ValidTo:  validity.Format(sub.ValidTo),
		Comment:  comment,
	}
}

// describe превращает ошибки валидатора в короткий текст для ответа провайдеру.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field %s is a required field", fe.Field())
	case "email":
		return fmt.Sprintf("field %s is not a valid email", fe.Field())
	default:
		return fmt.Sprintf("field %s is not valid", fe.Field())
	}
}
