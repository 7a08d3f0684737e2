package predict

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/youta-t/flarc"

	krest "github.com/ai-field-tools/iris-api/cmd/iris/rest"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/common"
	apipredictions "github.com/ai-field-tools/iris-api/pkg/api/types/predictions"
	"github.com/ai-field-tools/iris-api/pkg/utils"
)

// MaxChunkSize matches the server side limit on one batch request.
const MaxChunkSize = 1000

type Flag struct {
	SepalLength string `flag:"sepal-length" metavar:"CM" help:"sepal length of the flower, in centimeters"`
	SepalWidth  string `flag:"sepal-width" metavar:"CM" help:"sepal width of the flower, in centimeters"`
	PetalLength string `flag:"petal-length" metavar:"CM" help:"petal length of the flower, in centimeters"`
	PetalWidth  string `flag:"petal-width" metavar:"CM" help:"petal width of the flower, in centimeters"`

	File      string `flag:"file" alias:"f" metavar:"PATH" help:"CSV file of measurements to classify as a batch"`
	ChunkSize int    `flag:"chunk-size" metavar:"N" help:"records sent per batch request (1 to 1000)"`

	Json bool `flag:"json" help:"print the single prediction as JSON"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Classify iris measurements.",
		Flag{
			ChunkSize: 500,
		},
		flarc.Args{},
		common.NewTask(Task),
		flarc.WithDescription(`
Classify iris measurements.

One flower is classified by passing all four measurements as flags.
A CSV file of flowers is classified by passing --file; results are
written to stdout as CSV, in the order of the input rows.

The CSV columns are `+strings.Join(apipredictions.FeatureNames, ", ")+`.
A header row naming them is optional; with a header, columns may come
in any order and extra columns are ignored.

Example
-------

Classify one flower:

	{{ .Command }} --sepal-length 5.1 --sepal-width 3.5 --petal-length 1.4 --petal-width 0.2

The same, as JSON:

	{{ .Command }} --sepal-length 5.1 --sepal-width 3.5 --petal-length 1.4 --petal-width 0.2 --json

Classify a file of flowers:

	{{ .Command }} --file ./flowers.csv > results.csv
`),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	client krest.IrisClient,
	cl flarc.Commandline[Flag],
	_ []any,
) error {
	flags := cl.Flags()

	single := flags.SepalLength != "" || flags.SepalWidth != "" ||
		flags.PetalLength != "" || flags.PetalWidth != ""

	if flags.File != "" {
		if single {
			return fmt.Errorf(
				"%w: measurement flags cannot be used with --file", flarc.ErrUsage,
			)
		}
		return predictFile(ctx, logger, client, cl)
	}

	if !single {
		return fmt.Errorf(
			"%w: pass measurements as flags, or a CSV file with --file", flarc.ErrUsage,
		)
	}
	return predictSingle(ctx, client, cl)
}

func predictSingle(
	ctx context.Context, client krest.IrisClient, cl flarc.Commandline[Flag],
) error {
	flags := cl.Flags()

	measurements := apipredictions.Measurements{}
	for _, f := range []struct {
		flag  string
		value string
		dest  *float64
	}{
		{"--sepal-length", flags.SepalLength, &measurements.SepalLength},
		{"--sepal-width", flags.SepalWidth, &measurements.SepalWidth},
		{"--petal-length", flags.PetalLength, &measurements.PetalLength},
		{"--petal-width", flags.PetalWidth, &measurements.PetalWidth},
	} {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", flarc.ErrUsage, f.flag)
		}
		v, err := strconv.ParseFloat(f.value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s is not a number: %s", flarc.ErrUsage, f.flag, f.value)
		}
		*f.dest = v
	}
	if err := measurements.Validate(); err != nil {
		return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
	}

	detail, err := client.Predict(ctx, measurements)
	if err != nil {
		return err
	}

	if flags.Json {
		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		return enc.Encode(detail)
	}

	writeDetail(cl.Stdout(), detail)
	return nil
}

func writeDetail(w io.Writer, detail apipredictions.Detail) {
	fmt.Fprintf(w, "species       : %s\n", detail.Species)
	fmt.Fprintf(w, "confidence    : %s\n", formatFloat(detail.Confidence))
	fmt.Fprintf(w, "model version : %s\n", detail.ModelVersion)
	fmt.Fprintf(w, "prediction id : %s\n", detail.PredictionId)

	if len(detail.Probabilities) == 0 {
		return
	}
	fmt.Fprintln(w, "probabilities :")
	classes := utils.Sorted(
		utils.KeysOf(detail.Probabilities),
		func(a, b string) bool { return a < b },
	)
	for _, class := range classes {
		fmt.Fprintf(w, "    %-12s %s\n", class, formatFloat(detail.Probabilities[class]))
	}
}

func predictFile(
	ctx context.Context, logger *log.Logger, client krest.IrisClient, cl flarc.Commandline[Flag],
) error {
	flags := cl.Flags()
	if flags.ChunkSize < 1 || MaxChunkSize < flags.ChunkSize {
		return fmt.Errorf(
			"%w: --chunk-size should be between 1 and %d, but %d",
			flarc.ErrUsage, MaxChunkSize, flags.ChunkSize,
		)
	}

	file, err := os.Open(flags.File)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", flags.File, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", flags.File, err)
	}

	reader := csv.NewReader(file)
	columns, first, err := readHeader(reader)
	if err != nil {
		return fmt.Errorf("%s: %w", flags.File, err)
	}

	bar := pb.New64(stat.Size())
	bar.Set(pb.Bytes, true)
	bar.SetWriter(cl.Stderr())
	if err := bar.Err(); err != nil {
		return err
	}
	bar.Start()
	defer bar.Finish()

	out := csv.NewWriter(cl.Stdout())
	header := append([]string{}, apipredictions.FeatureNames...)
	header = append(header, "species", "confidence", "model_version", "prediction_id")
	if err := out.Write(header); err != nil {
		return err
	}

	total := 0
	chunk := make([]apipredictions.Measurements, 0, flags.ChunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		details, err := client.PredictBatch(ctx, chunk)
		if err != nil {
			return err
		}
		if len(details) != len(chunk) {
			return fmt.Errorf(
				"server returned %d results for %d records", len(details), len(chunk),
			)
		}
		for _, detail := range details {
			if err := out.Write(recordOf(detail)); err != nil {
				return err
			}
		}
		out.Flush()
		if err := out.Error(); err != nil {
			return err
		}

		total += len(chunk)
		chunk = chunk[:0]
		bar.SetCurrent(reader.InputOffset())
		return nil
	}

	line := 0
	record := first
	for {
		if record == nil {
			r, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("%s: %w", flags.File, err)
			}
			record = r
		}

		line += 1
		measurements, err := parseRecord(record, columns)
		if err != nil {
			return fmt.Errorf("%s: record %d: %w", flags.File, line, err)
		}
		chunk = append(chunk, measurements)
		if flags.ChunkSize <= len(chunk) {
			if err := flush(); err != nil {
				return err
			}
		}
		record = nil
	}
	if err := flush(); err != nil {
		return err
	}

	bar.SetCurrent(stat.Size())
	logger.Printf("classified %d records", total)
	return nil
}

// readHeader sniffs the optional header row.
//
// It returns the column index of each feature, and, when the first row
// is already data, that row (nil otherwise).
func readHeader(reader *csv.Reader) ([]int, []string, error) {
	// columns may vary in count between a wide header and our picks.
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, fmt.Errorf("no records")
		}
		return nil, nil, err
	}

	if _, err := strconv.ParseFloat(strings.TrimSpace(first[0]), 64); err == nil {
		// no header. columns come in the default order.
		columns := make([]int, len(apipredictions.FeatureNames))
		for nth := 0; nth < len(columns); nth++ {
			columns[nth] = nth
		}
		return columns, first, nil
	}

	columns := make([]int, len(apipredictions.FeatureNames))
	for nth, name := range apipredictions.FeatureNames {
		found := -1
		for col := 0; col < len(first); col++ {
			if strings.TrimSpace(first[col]) == name {
				found = col
				break
			}
		}
		if found < 0 {
			return nil, nil, fmt.Errorf(`header misses column "%s"`, name)
		}
		columns[nth] = found
	}
	return columns, nil, nil
}

func parseRecord(record []string, columns []int) (apipredictions.Measurements, error) {
	values := make([]float64, len(columns))
	for nth, col := range columns {
		if len(record) <= col {
			return apipredictions.Measurements{}, fmt.Errorf(
				"%s: column %d is missing", apipredictions.FeatureNames[nth], col+1,
			)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return apipredictions.Measurements{}, fmt.Errorf(
				"%s: not a number: %s", apipredictions.FeatureNames[nth], record[col],
			)
		}
		values[nth] = v
	}

	measurements := apipredictions.Measurements{
		SepalLength: values[0],
		SepalWidth:  values[1],
		PetalLength: values[2],
		PetalWidth:  values[3],
	}
	if err := measurements.Validate(); err != nil {
		return apipredictions.Measurements{}, err
	}
	return measurements, nil
}

func recordOf(detail apipredictions.Detail) []string {
	return []string{
		formatFloat(detail.SepalLength),
		formatFloat(detail.SepalWidth),
		formatFloat(detail.PetalLength),
		formatFloat(detail.PetalWidth),
		detail.Species,
		formatFloat(detail.Confidence),
		detail.ModelVersion,
		detail.PredictionId,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
