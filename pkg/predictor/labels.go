package predictor

// IrisLabels names the three iris classes by index.
var IrisLabels = []string{"setosa", "versicolor", "virginica"}

// IrisFeatures are the input columns the iris models expect, in order.
var IrisFeatures = []string{"sepal_length", "sepal_width", "petal_length", "petal_width"}

// SampleInput holds one measurement per iris class. The API uses it for
// smoke testing a deployment.
func SampleInput() Input {
	return Input{Data: [][]float64{
		{5.1, 3.5, 1.4, 0.2},
		{5.5, 2.4, 3.8, 1.1},
		{6.3, 3.3, 6.0, 2.5},
	}}
}
