package metrics

// Op names the scheduler/processor/notifier operation an operations_total
// observation belongs to.
type Op string

const (
	OpSchedule   Op = "schedule"
	OpUnschedule Op = "unschedule"
	OpFire       Op = "fire"
	OpReload     Op = "reload"
	OpCleanup    Op = "cleanup"
	OpEnrich     Op = "enrich"
	OpNotify     Op = "notify"
)

// Result is the bounded success/error outcome of an Op.
type Result string

const (
	ResultSuccess Result = "success"
	ResultError   Result = "error"
)

// Component names which service recorded an Op.
type Component string

const (
	ComponentScheduler Component = "scheduler"
	ComponentProcessor Component = "processor"
	ComponentNotifier  Component = "notifier"
	ComponentStore     Component = "store"
	ComponentBus       Component = "bus"
)
