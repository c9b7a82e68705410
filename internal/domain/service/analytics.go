package service

// Member is one independently queryable predictor inside an ensemble. Each
// member returns a single scalar prediction per feature row.
type Member interface {
	Predict(row []float64) float64
}

// Ensemble is an opaque collection of members. The advisor aggregates member
// outputs for both the point estimate and the uncertainty interval; it never
// assumes anything about the backing architecture beyond this contract.
type Ensemble interface {
	Members() []Member
}

// Trainer fits an ensemble on a numeric feature table and a target column.
type Trainer interface {
	Fit(features [][]float64, target []float64) (Ensemble, error)
}

// Scaler is a reversible numeric transform fit on training data and applied
// identically at inference time.
type Scaler interface {
	Fit(rows [][]float64)
	Transform(rows [][]float64) [][]float64
	InverseTransform(rows [][]float64) [][]float64
}
