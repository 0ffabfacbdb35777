package gate

// Action describes the operation an actor wants to perform.
type Action string

const (
	ActionViewQuote    Action = "quote.view"
	ActionCreateQuote  Action = "quote.create"
	ActionPriceQuote   Action = "quote.price"
	ActionReviseQuote  Action = "quote.revise"
	ActionApproveQuote Action = "quote.approve"
	ActionRejectQuote  Action = "quote.reject"
	ActionRateDeal     Action = "quote.rate"

	ActionRecommend Action = "supplier.recommend"
	ActionAssign    Action = "supplier.assign"

	ActionViewJob    Action = "job.view"
	ActionAcceptJob  Action = "job.accept"
	ActionReadyJob   Action = "job.ready"
	ActionPickupJob  Action = "job.pickup"
	ActionDeliverJob Action = "job.deliver"
	ActionCancelJob  Action = "job.cancel"
	ActionRateJob    Action = "job.rate"

	ActionViewWeights   Action = "weights.view"
	ActionUpdateWeights Action = "weights.update"

	ActionAddAttachment   Action = "attachment.add"
	ActionViewAttachments Action = "attachment.view"
)
