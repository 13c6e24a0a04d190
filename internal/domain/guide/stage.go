package guide

// Stage identifies one step of the intake workflow. Each stage persists its own record.
type Stage string

const (
	StageEntry          Stage = "registro"
	StageGrossWeighing  Stage = "pesaje"
	StageClassification Stage = "clasificacion"
	StageNetWeighing    Stage = "pesaje_neto"
	StageExit           Stage = "salida"
)

// Stages lists every stage in workflow order.
var Stages = []Stage{
	StageEntry,
	StageGrossWeighing,
	StageClassification,
	StageNetWeighing,
	StageExit,
}

func ParseStage(raw string) (Stage, bool) {
	for _, stage := range Stages {
		if string(stage) == raw {
			return stage, true
		}
	}
	return "", false
}

// TimestampField is the persisted naive-UTC column of the stage.
func (s Stage) TimestampField() string {
	return "timestamp_" + string(s) + "_utc"
}

// DateField and TimeField name the display-local pair attached to the consolidated guide.
func (s Stage) DateField() string {
	return "fecha_" + string(s)
}

func (s Stage) TimeField() string {
	return "hora_" + string(s)
}

// State is the lifecycle classification of a guide.
type State string

const (
	StateEntryRegistered State = "Entrada Registrada"
	StateGrossWeighed    State = "Pesaje Bruto Completado"
	StateClassified      State = "Clasificación Completa"
	StateNetWeighed      State = "Pesaje Neto Completo"
	StateClosed          State = "Cerrada"
)

// Weighing methods accepted for the gross weighing stage.
const (
	WeighingDirect  = "directo"
	WeighingVirtual = "virtual"
	WeighingPepa    = "pepa"
)
