package telemetry

import (
	"math"
	"sort"
	"strings"
	"time"
)

// largeFileThresholdBytes marks upload failures worth calling out separately
const largeFileThresholdBytes = 10 * 1024 * 1024

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Window holds the report cutoffs, all derived from one injected reference time
type Window struct {
	Since   time.Time // 30-day rolling cutoff bounding every query
	WeekAgo time.Time
	DayAgo  time.Time
}

// WindowFrom computes the report window from the given reference time
func WindowFrom(now time.Time) Window {
	return Window{
		Since:   now.AddDate(0, 0, -30),
		WeekAgo: now.AddDate(0, 0, -7),
		DayAgo:  now.AddDate(0, 0, -1),
	}
}

// AggregateInput carries the raw rows for one report generation. Any slice may
// be empty; WalletFirstSeen maps lowercased wallet addresses to the earliest
// session ever recorded for them (all-time, not window-bounded).
type AggregateInput struct {
	WalletEvents    []WalletEvent
	FormEvents      []FormEvent
	SwapEvents      []SwapEvent
	PaymentEvents   []PaymentFlowEvent
	UploadLogs      []UploadLog
	Sessions        []Session
	WalletFirstSeen map[string]time.Time
}

// Aggregate reduces the raw event rows into a TelemetryMetrics report. It is a
// pure function of its inputs and the reference time.
func Aggregate(in AggregateInput, now time.Time) *TelemetryMetrics {
	window := WindowFrom(now)

	return &TelemetryMetrics{
		LastUpdated: now.UTC().Format(time.RFC3339),
		Wallets:     aggregateWallets(in.WalletEvents),
		Forms:       aggregateForms(in.FormEvents),
		Swaps:       aggregateSwaps(in.SwapEvents),
		Payments:    aggregatePayments(in.PaymentEvents),
		Uploads:     aggregateUploads(in.UploadLogs),
		Performance: aggregatePerformance(in.FormEvents, in.PaymentEvents, in.UploadLogs),
		Behavior:    aggregateBehavior(in, window),
		Onchain:     aggregateOnchain(in.PaymentEvents),
		Errors:      aggregateErrors(in.FormEvents, in.WalletEvents, in.PaymentEvents, in.UploadLogs),
		Patterns:    aggregatePatterns(in, window),
		Traffic:     aggregateTraffic(in.Sessions, in.FormEvents, in.PaymentEvents),
	}
}

func aggregateWallets(events []WalletEvent) WalletStats {
	connects := 0
	switches := 0
	unique := map[string]struct{}{}
	for _, e := range events {
		switch e.EventType {
		case WalletEventConnect:
			connects++
			if e.WalletAddress != nil && *e.WalletAddress != "" {
				unique[strings.ToLower(*e.WalletAddress)] = struct{}{}
			}
		case WalletEventChainSwitch:
			switches++
		}
	}
	return WalletStats{
		MonthlyActive: len(unique),
		TotalConnects: connects,
		ChainSwitches: switches,
	}
}

func aggregateForms(events []FormEvent) FormStats {
	started := 0
	completed := 0
	errored := 0
	for _, e := range events {
		if e.Status == FormStatusStarted && e.Step == FormStepHypercertForm {
			started++
		}
		if e.Status == FormStatusCompleted && e.Step == FormStepHypercertForm {
			completed++
		}
		if e.Status == FormStatusError {
			errored++
		}
	}
	return FormStats{
		Started:          started,
		Completed:        completed,
		CompletionRate:   percent(completed, started),
		ValidationErrors: errored,
	}
}

type chainPairKey struct {
	from int64
	to   int64
}

type tokenPairKey struct {
	from string
	to   string
}

func aggregateSwaps(events []SwapEvent) SwapStats {
	starts := 0
	completions := 0
	failures := 0
	var durations []int64
	var amounts []float64

	chainPairs := map[chainPairKey]int{}
	tokenPairs := map[tokenPairKey]*struct {
		count int
		total float64
	}{}
	failureReasons := map[string]int{}

	for _, e := range events {
		switch e.EventType {
		case SwapEventRouteStarted:
			starts++
		case SwapEventRouteCompleted:
			completions++
			if e.DurationMs != nil && *e.DurationMs != 0 {
				durations = append(durations, *e.DurationMs)
			}
		case SwapEventRouteFailed:
			failures++
			if e.ErrorLabel != nil && *e.ErrorLabel != "" {
				failureReasons[*e.ErrorLabel]++
			}
		}

		if e.FromChainID != nil && e.ToChainID != nil {
			chainPairs[chainPairKey{*e.FromChainID, *e.ToChainID}]++
		}
		if e.FromToken != nil && e.ToToken != nil && *e.FromToken != "" && *e.ToToken != "" {
			key := tokenPairKey{*e.FromToken, *e.ToToken}
			data := tokenPairs[key]
			if data == nil {
				data = &struct {
					count int
					total float64
				}{}
				tokenPairs[key] = data
			}
			data.count++
			if e.AmountInUSD != nil {
				data.total += *e.AmountInUSD
			}
		}
		if e.AmountInUSD != nil && *e.AmountInUSD != 0 {
			amounts = append(amounts, *e.AmountInUSD)
		}
	}

	distribution := make([]ChainPair, 0, len(chainPairs))
	for key, count := range chainPairs {
		distribution = append(distribution, ChainPair{From: key.from, To: key.to, Count: count})
	}
	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Count != distribution[j].Count {
			return distribution[i].Count > distribution[j].Count
		}
		if distribution[i].From != distribution[j].From {
			return distribution[i].From < distribution[j].From
		}
		return distribution[i].To < distribution[j].To
	})

	var mostUsedSource, mostUsedDest *int64
	if len(distribution) > 0 {
		from, to := distribution[0].From, distribution[0].To
		mostUsedSource, mostUsedDest = &from, &to
	}
	if len(distribution) > 10 {
		distribution = distribution[:10]
	}

	popular := make([]TokenPair, 0, len(tokenPairs))
	for key, data := range tokenPairs {
		avg := 0.0
		if data.count > 0 {
			avg = round2(data.total / float64(data.count))
		}
		popular = append(popular, TokenPair{
			FromToken:    key.from,
			ToToken:      key.to,
			Count:        data.count,
			AvgAmountUSD: avg,
		})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Count != popular[j].Count {
			return popular[i].Count > popular[j].Count
		}
		if popular[i].FromToken != popular[j].FromToken {
			return popular[i].FromToken < popular[j].FromToken
		}
		return popular[i].ToToken < popular[j].ToToken
	})
	if len(popular) > 10 {
		popular = popular[:10]
	}

	totalVolume := 0.0
	for _, amount := range amounts {
		totalVolume += amount
	}
	averageAmount := 0.0
	if len(amounts) > 0 {
		averageAmount = round2(totalVolume / float64(len(amounts)))
	}

	reasons := topKeysByCount(failureReasons, 5)

	return SwapStats{
		Started:               starts,
		Completed:             completions,
		CompletionRate:        percent(completions, starts),
		MedianDurationMs:      median(durations),
		MostUsedSourceChain:   mostUsedSource,
		MostUsedDestChain:     mostUsedDest,
		ChainPairDistribution: distribution,
		PopularTokenPairs:     popular,
		AverageSwapAmountUSD:  averageAmount,
		TotalSwapVolumeUSD:    round2(totalVolume),
		FailureRate:           percent(failures, starts),
		CommonFailureReasons:  reasons,
	}
}

func aggregatePayments(events []PaymentFlowEvent) PaymentStats {
	type flowState struct {
		completed bool
		errored   bool
	}
	flows := map[string]*flowState{}
	for _, e := range events {
		fallback := e.SessionID + "-" + e.HypercertID
		id := extractFlowID(e.Context, fallback)
		state := flows[id]
		if state == nil {
			state = &flowState{}
			flows[id] = state
		}
		if e.Status == PaymentStatusCompleted && e.StepName == PaymentStepOrderCompleted {
			state.completed = true
		}
		if e.Status == PaymentStatusError {
			state.errored = true
		}
	}

	completed := 0
	errored := 0
	for _, state := range flows {
		if state.completed {
			completed++
		}
		if state.errored {
			errored++
		}
	}

	return PaymentStats{
		TotalFlows:     len(flows),
		CompletedFlows: completed,
		CompletionRate: percent(completed, len(flows)),
		DropOffRate:    percent(errored, len(flows)),
	}
}

func aggregateUploads(logs []UploadLog) UploadStats {
	success := 0
	failures := 0
	for _, l := range logs {
		switch l.Status {
		case UploadStatusSuccess:
			success++
		case UploadStatusError:
			failures++
		}
	}
	return UploadStats{
		Total:       len(logs),
		Failures:    failures,
		SuccessRate: percent(success, len(logs)),
	}
}

func aggregatePerformance(formEvents []FormEvent, paymentEvents []PaymentFlowEvent, uploads []UploadLog) PerformanceStats {
	// Mint duration: earliest event per submission to its mint_completed event.
	type submissionTiming struct {
		start time.Time
		end   *time.Time
	}
	submissions := map[string]*submissionTiming{}
	for _, e := range formEvents {
		if e.SubmissionID == nil || *e.SubmissionID == "" {
			continue
		}
		timing := submissions[*e.SubmissionID]
		if timing == nil {
			timing = &submissionTiming{start: e.OccurredAt}
			submissions[*e.SubmissionID] = timing
		} else if e.OccurredAt.Before(timing.start) {
			timing.start = e.OccurredAt
		}
		if e.Step == FormStepMintCompleted && e.Status == FormStatusCompleted {
			end := e.OccurredAt
			timing.end = &end
		}
	}
	var mintSeconds []float64
	for _, timing := range submissions {
		if timing.end != nil {
			mintSeconds = append(mintSeconds, clampNonNegative(timing.end.Sub(timing.start).Seconds()))
		}
	}

	// Step durations: consecutive in_progress events of the same submission,
	// ordered by timestamp. Negative deltas from duplicate or out-of-order
	// client events are clamped to zero.
	var inProgress []FormEvent
	for _, e := range formEvents {
		if e.SubmissionID != nil && *e.SubmissionID != "" && e.Status == FormStatusInProgress {
			inProgress = append(inProgress, e)
		}
	}
	sort.SliceStable(inProgress, func(i, j int) bool {
		return inProgress[i].OccurredAt.Before(inProgress[j].OccurredAt)
	})
	stepDurations := map[string][]int64{}
	for i := 0; i+1 < len(inProgress); i++ {
		current, next := inProgress[i], inProgress[i+1]
		if *current.SubmissionID != *next.SubmissionID {
			continue
		}
		delta := next.OccurredAt.Sub(current.OccurredAt).Milliseconds()
		if delta < 0 {
			delta = 0
		}
		stepDurations[current.Step] = append(stepDurations[current.Step], delta)
	}
	slowest := make([]StepDuration, 0, len(stepDurations))
	for step, durations := range stepDurations {
		var sum int64
		for _, d := range durations {
			sum += d
		}
		slowest = append(slowest, StepDuration{
			Step:          step,
			AvgDurationMs: int64(math.Round(float64(sum) / float64(len(durations)))),
		})
	}
	sort.Slice(slowest, func(i, j int) bool {
		if slowest[i].AvgDurationMs != slowest[j].AvgDurationMs {
			return slowest[i].AvgDurationMs > slowest[j].AvgDurationMs
		}
		return slowest[i].Step < slowest[j].Step
	})
	if len(slowest) > 5 {
		slowest = slowest[:5]
	}

	// Payment phase timings keyed by flow id (session+order fallback).
	type paymentTiming struct {
		start        time.Time
		approval     *time.Time
		confirmation *time.Time
		end          *time.Time
	}
	payments := map[string]*paymentTiming{}
	for _, e := range paymentEvents {
		id := extractFlowID(e.Context, e.SessionID+"-"+e.OrderID)
		timing := payments[id]
		if timing == nil {
			timing = &paymentTiming{start: e.OccurredAt}
			payments[id] = timing
		} else if e.OccurredAt.Before(timing.start) {
			timing.start = e.OccurredAt
		}
		occurred := e.OccurredAt
		if e.Status == PaymentStatusCompleted {
			switch {
			case e.StepIndex == PaymentStepApproval:
				timing.approval = &occurred
			case e.StepIndex == PaymentStepConfirmation:
				timing.confirmation = &occurred
			}
			if e.StepName == PaymentStepOrderCompleted {
				timing.end = &occurred
			}
		}
	}
	var paymentSeconds, approvalSeconds, confirmationSeconds []float64
	for _, timing := range payments {
		if timing.end == nil {
			continue
		}
		paymentSeconds = append(paymentSeconds, clampNonNegative(timing.end.Sub(timing.start).Seconds()))
		if timing.approval != nil {
			approvalSeconds = append(approvalSeconds, clampNonNegative(timing.approval.Sub(timing.start).Seconds()))
			if timing.confirmation != nil {
				confirmationSeconds = append(confirmationSeconds, clampNonNegative(timing.confirmation.Sub(*timing.approval).Seconds()))
			}
		}
	}

	// Upload size and duration.
	var sizesKB []float64
	for _, l := range uploads {
		if l.SizeBytes != nil {
			sizesKB = append(sizesKB, float64(*l.SizeBytes)/1024)
		}
	}
	type uploadTiming struct {
		start time.Time
		end   *time.Time
	}
	uploadTimings := map[string]*uploadTiming{}
	for _, l := range uploads {
		sid := "unknown"
		if l.SessionID != nil && *l.SessionID != "" {
			sid = *l.SessionID
		}
		timing := uploadTimings[sid]
		if timing == nil {
			timing = &uploadTiming{start: l.OccurredAt}
			uploadTimings[sid] = timing
		} else if l.OccurredAt.Before(timing.start) {
			timing.start = l.OccurredAt
		}
		if l.Status == UploadStatusSuccess {
			end := l.OccurredAt
			timing.end = &end
		}
	}
	var uploadMs []float64
	for _, timing := range uploadTimings {
		if timing.end != nil {
			uploadMs = append(uploadMs, clampNonNegative(float64(timing.end.Sub(timing.start).Milliseconds())))
		}
	}

	return PerformanceStats{
		AverageMintTimeSeconds:    round1(mean(mintSeconds)),
		SlowestSteps:              slowest,
		AveragePaymentTimeSeconds: round1(mean(paymentSeconds)),
		ApprovalTimeSeconds:       round1(mean(approvalSeconds)),
		ConfirmationTimeSeconds:   round1(mean(confirmationSeconds)),
		AverageUploadSizeKB:       round1(mean(sizesKB)),
		AverageUploadTimeMs:       math.Round(mean(uploadMs)),
	}
}

func aggregateBehavior(in AggregateInput, window Window) BehaviorStats {
	// Events per session across wallet, form and swap events.
	perSession := map[string]int{}
	for _, e := range in.WalletEvents {
		perSession[e.SessionID]++
	}
	for _, e := range in.FormEvents {
		perSession[e.SessionID]++
	}
	for _, e := range in.SwapEvents {
		perSession[e.SessionID]++
	}
	totalEvents := 0
	bounced := 0
	for _, count := range perSession {
		totalEvents += count
		if count < 2 {
			bounced++
		}
	}
	averagePerSession := 0.0
	if len(perSession) > 0 {
		averagePerSession = round1(float64(totalEvents) / float64(len(perSession)))
	}

	// Multi-chain wallets: more than one distinct chain id per address.
	chainsByWallet := map[string]map[int64]struct{}{}
	connects := 0
	disconnects := 0
	uniqueWallets := map[string]struct{}{}
	for _, e := range in.WalletEvents {
		switch e.EventType {
		case WalletEventConnect:
			connects++
			if e.WalletAddress != nil && *e.WalletAddress != "" {
				uniqueWallets[strings.ToLower(*e.WalletAddress)] = struct{}{}
			}
		case WalletEventDisconnect:
			disconnects++
		}
		if e.WalletAddress != nil && *e.WalletAddress != "" && e.ChainID != nil {
			addr := strings.ToLower(*e.WalletAddress)
			if chainsByWallet[addr] == nil {
				chainsByWallet[addr] = map[int64]struct{}{}
			}
			chainsByWallet[addr][*e.ChainID] = struct{}{}
		}
	}
	multiChain := 0
	for _, chains := range chainsByWallet {
		if len(chains) > 1 {
			multiChain++
		}
	}

	// Retention: a wallet is returning when its earliest session anywhere
	// predates the window cutoff.
	returning := 0
	for addr := range uniqueWallets {
		if firstSeen, ok := in.WalletFirstSeen[addr]; ok && firstSeen.Before(window.Since) {
			returning++
		}
	}
	newUsers := len(uniqueWallets) - returning
	if newUsers < 0 {
		newUsers = 0
	}

	// Tip step: completed with a tx hash means accepted, completed without
	// one means declined.
	tipAccepted := 0
	tipDeclined := 0
	for _, e := range in.PaymentEvents {
		if e.StepIndex != PaymentStepTip || e.Status != PaymentStatusCompleted {
			continue
		}
		if e.TxHash != nil && *e.TxHash != "" {
			tipAccepted++
		} else {
			tipDeclined++
		}
	}

	return BehaviorStats{
		AverageEventsPerSession: averagePerSession,
		BounceRate:              percent(bounced, len(perSession)),
		MultiChainUsers:         multiChain,
		WalletDisconnectRate:    percent(disconnects, connects),
		ReturningUsers:          returning,
		NewUsers:                newUsers,
		RetentionRate:           percent(returning, len(uniqueWallets)),
		TipAcceptanceRate:       percent(tipAccepted, tipAccepted+tipDeclined),
		TipDeclineRate:          percent(tipDeclined, tipAccepted+tipDeclined),
	}
}

func aggregateOnchain(events []PaymentFlowEvent) OnchainStats {
	approvals := 0
	purchases := 0
	tips := 0
	hypercerts := map[string]struct{}{}
	orders := map[string]struct{}{}
	for _, e := range events {
		hasTx := e.TxHash != nil && *e.TxHash != ""
		if hasTx {
			switch e.StepIndex {
			case PaymentStepApproval:
				approvals++
			case PaymentStepPurchase:
				purchases++
			case PaymentStepTip:
				tips++
			}
		}
		hypercerts[e.HypercertID] = struct{}{}
		if e.Status == PaymentStatusCompleted && e.StepName == PaymentStepOrderCompleted {
			orders[e.OrderID] = struct{}{}
		}
	}
	return OnchainStats{
		ApprovalTxCount:              approvals,
		PurchaseTxCount:              purchases,
		TipTxCount:                   tips,
		UniqueHypercertsFromPayments: len(hypercerts),
		UniqueOrdersCompleted:        len(orders),
		PlatformFeesCollected:        tips,
	}
}

func aggregateErrors(formEvents []FormEvent, walletEvents []WalletEvent, paymentEvents []PaymentFlowEvent, uploads []UploadLog) ErrorStats {
	// Validation errors keyed by step + message.
	type validationKey struct {
		step    string
		message string
	}
	validationCounts := map[validationKey]int{}
	for _, e := range formEvents {
		if e.Status != FormStatusError {
			continue
		}
		if msg, ok := extractErrorMessage(e.Context); ok {
			validationCounts[validationKey{e.Step, msg}]++
		}
	}
	topValidation := make([]ValidationError, 0, len(validationCounts))
	for key, count := range validationCounts {
		topValidation = append(topValidation, ValidationError{
			Field:   key.step,
			Message: key.message,
			Count:   count,
		})
	}
	sort.Slice(topValidation, func(i, j int) bool {
		if topValidation[i].Count != topValidation[j].Count {
			return topValidation[i].Count > topValidation[j].Count
		}
		if topValidation[i].Field != topValidation[j].Field {
			return topValidation[i].Field < topValidation[j].Field
		}
		return topValidation[i].Message < topValidation[j].Message
	})
	if len(topValidation) > 10 {
		topValidation = topValidation[:10]
	}

	connectionErrors := 0
	for _, e := range walletEvents {
		if e.EventType == WalletEventError && e.Message != nil && *e.Message != "" {
			connectionErrors++
		}
	}

	// Per-step payment error rates.
	stepErrors := map[string]int{}
	stepTotals := map[string]int{}
	for _, e := range paymentEvents {
		stepTotals[e.StepName]++
		if e.Status == PaymentStatusError {
			stepErrors[e.StepName]++
		}
	}
	errorsByStep := make([]StepErrorRate, 0, len(stepErrors))
	for step, count := range stepErrors {
		errorsByStep = append(errorsByStep, StepErrorRate{
			Step:       step,
			ErrorCount: count,
			ErrorRate:  percent(count, stepTotals[step]),
		})
	}
	sort.Slice(errorsByStep, func(i, j int) bool {
		if errorsByStep[i].ErrorRate != errorsByStep[j].ErrorRate {
			return errorsByStep[i].ErrorRate > errorsByStep[j].ErrorRate
		}
		return errorsByStep[i].Step < errorsByStep[j].Step
	})

	uploadFailures := 0
	largeFileFailures := 0
	for _, l := range uploads {
		if l.Status != UploadStatusError {
			continue
		}
		uploadFailures++
		if l.SizeBytes != nil && *l.SizeBytes > largeFileThresholdBytes {
			largeFileFailures++
		}
	}

	return ErrorStats{
		TopValidationErrors: topValidation,
		ConnectionErrors:    connectionErrors,
		// Chain switch failures are not yet labeled by the client.
		ChainSwitchErrors: 0,
		ErrorsByStep:      errorsByStep,
		UploadErrorRate:   percent(uploadFailures, len(uploads)),
		LargeFileFailures: largeFileFailures,
	}
}

func aggregatePatterns(in AggregateInput, window Window) PatternStats {
	var timestamps []time.Time
	for _, e := range in.WalletEvents {
		timestamps = append(timestamps, e.OccurredAt)
	}
	for _, e := range in.FormEvents {
		timestamps = append(timestamps, e.OccurredAt)
	}
	for _, e := range in.SwapEvents {
		timestamps = append(timestamps, e.OccurredAt)
	}

	var byHour [24]int
	byDay := map[string]int{}
	weekday := 0
	weekend := 0
	for _, ts := range timestamps {
		utc := ts.UTC()
		byHour[utc.Hour()]++
		day := int(utc.Weekday())
		byDay[dayNames[day]]++
		if day == 0 || day == 6 {
			weekend++
		} else {
			weekday++
		}
	}

	peakHour := 0
	for hour := 1; hour < 24; hour++ {
		if byHour[hour] > byHour[peakHour] {
			peakHour = hour
		}
	}

	peakDay := "Unknown"
	peakDayCount := 0
	for _, name := range dayNames {
		if byDay[name] > peakDayCount {
			peakDay = name
			peakDayCount = byDay[name]
		}
	}

	daily := map[string]struct{}{}
	weekly := map[string]struct{}{}
	monthly := map[string]struct{}{}
	for _, s := range in.Sessions {
		if s.WalletAddress == nil || *s.WalletAddress == "" {
			continue
		}
		addr := strings.ToLower(*s.WalletAddress)
		monthly[addr] = struct{}{}
		if !s.CreatedAt.Before(window.WeekAgo) {
			weekly[addr] = struct{}{}
		}
		if !s.CreatedAt.Before(window.DayAgo) {
			daily[addr] = struct{}{}
		}
	}

	return PatternStats{
		PeakHour:           peakHour,
		PeakDay:            peakDay,
		WeekdayVsWeekend:   WeekdaySplit{WeekdayEvents: weekday, WeekendEvents: weekend},
		DailyActiveUsers:   len(daily),
		WeeklyActiveUsers:  len(weekly),
		MonthlyActiveUsers: len(monthly),
	}
}

func aggregateTraffic(sessions []Session, formEvents []FormEvent, paymentEvents []PaymentFlowEvent) TrafficStats {
	// Sessions that reached a mint or a completed order count as conversions.
	converted := map[string]struct{}{}
	for _, e := range formEvents {
		if e.Step == FormStepMintCompleted {
			converted[e.SessionID] = struct{}{}
		}
	}
	for _, e := range paymentEvents {
		if e.StepName == PaymentStepOrderCompleted {
			converted[e.SessionID] = struct{}{}
		}
	}

	type referrerData struct {
		count       int
		conversions int
	}
	referrers := map[string]*referrerData{}
	browsers := map[string]int{}
	for _, s := range sessions {
		if s.Referrer != nil && *s.Referrer != "" {
			data := referrers[*s.Referrer]
			if data == nil {
				data = &referrerData{}
				referrers[*s.Referrer] = data
			}
			data.count++
			if _, ok := converted[s.ID]; ok {
				data.conversions++
			}
		}
		if s.UserAgent != nil && *s.UserAgent != "" {
			browsers[classifyBrowser(*s.UserAgent)]++
		}
	}

	topReferrers := make([]Referrer, 0, len(referrers))
	for referrer, data := range referrers {
		topReferrers = append(topReferrers, Referrer{
			Referrer:       referrer,
			Count:          data.count,
			ConversionRate: percent(data.conversions, data.count),
		})
	}
	sort.Slice(topReferrers, func(i, j int) bool {
		if topReferrers[i].Count != topReferrers[j].Count {
			return topReferrers[i].Count > topReferrers[j].Count
		}
		return topReferrers[i].Referrer < topReferrers[j].Referrer
	})
	if len(topReferrers) > 10 {
		topReferrers = topReferrers[:10]
	}

	topAgents := make([]UserAgent, 0, len(browsers))
	for browser, count := range browsers {
		topAgents = append(topAgents, UserAgent{Browser: browser, Count: count})
	}
	sort.Slice(topAgents, func(i, j int) bool {
		if topAgents[i].Count != topAgents[j].Count {
			return topAgents[i].Count > topAgents[j].Count
		}
		return topAgents[i].Browser < topAgents[j].Browser
	})
	if len(topAgents) > 5 {
		topAgents = topAgents[:5]
	}

	return TrafficStats{
		TopReferrers:  topReferrers,
		TopUserAgents: topAgents,
	}
}

// classifyBrowser maps a raw user agent to a coarse browser family. Chrome is
// checked before Safari because Chrome user agents also claim Safari.
func classifyBrowser(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	default:
		return "Other"
	}
}

// percent computes numerator/denominator as a percentage rounded to one
// decimal place. The denominator is floored at 1 so the result is never NaN.
func percent(numerator, denominator int) float64 {
	if denominator < 1 {
		denominator = 1
	}
	return round1(float64(numerator) / float64(denominator) * 100)
}

// median returns the middle value of the durations, the rounded mean of the
// two middle values for even counts, or 0 for empty input
func median(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return int64(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
	}
	return sorted[mid]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// topKeysByCount returns the up-to-n keys with the highest counts, ties broken
// alphabetically
func topKeysByCount(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
