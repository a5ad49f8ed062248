package config

type WorkerKeyStruct struct {
	PersistEvaluationAttemptsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistEvaluationAttemptsQueue: "persist_evaluation_attempts_queue",
}
