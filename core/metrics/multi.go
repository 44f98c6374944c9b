package metrics

// MultiSink fans samples out to several sinks. Optional recorders are
// forwarded only to sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the sample to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPrediction(s PredictionSample) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordPrediction(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordEvaluation forwards evaluation samples.
func (m *MultiSink) RecordEvaluation(ev EvaluationSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(EvaluationRecorder); ok {
			if err := rec.RecordEvaluation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTraining forwards training runs.
func (m *MultiSink) RecordTraining(ev TrainingSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TrainingRecorder); ok {
			if err := rec.RecordTraining(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRequestError forwards failed requests.
func (m *MultiSink) RecordRequestError(ev RequestErrorSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RequestErrorRecorder); ok {
			if err := rec.RecordRequestError(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
