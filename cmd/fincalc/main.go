package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iwvelando/fincalc/internal/config"
	"github.com/iwvelando/fincalc/internal/projection"
	"github.com/iwvelando/fincalc/internal/report"
	"github.com/iwvelando/fincalc/pkg/constants"
	"github.com/iwvelando/fincalc/pkg/output"
	"github.com/iwvelando/fincalc/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, html, pdf")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	chromePath := flag.String("chrome-path", "", "Chromium binary used for pdf output")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	results, err := projection.GetProjections(logger, *conf)
	if err != nil {
		logger.Fatal("failed to compute scenarios",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	display := output.Options{Currency: conf.Output.Currency, Locale: conf.Output.Locale}
	switch outputFormat {
	case constants.OutputFormatPretty:
		err = output.PrettyFormat(os.Stdout, results, display)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(os.Stdout, results, display)
	case constants.OutputFormatJSON:
		err = output.JSONFormat(os.Stdout, results)
	case constants.OutputFormatHTML, constants.OutputFormatPDF:
		var renderer report.PDFRenderer
		if outputFormat == constants.OutputFormatPDF {
			renderer = report.NewChromiumPDFRenderer(*chromePath)
		}
		err = report.Write(context.Background(), os.Stdout, outputFormat, results, report.Options{
			Options:   display,
			Generated: time.Now(),
		}, renderer)
	}
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.String("format", outputFormat),
			zap.Error(err),
		)
	}
}
