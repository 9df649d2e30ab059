package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/treydock/puppet-subscription-manager/pkg/k8s/client"
	"github.com/treydock/puppet-subscription-manager/pkg/serializer"
)

// Shared flags are built per command; urfave/cli flags hold parsed state.

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output destination: file path, '-' for stdout, or cm://namespace/name",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatJSON),
		Usage:   fmt.Sprintf("output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func kubeconfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "kubeconfig used for cm:// output (default: $KUBECONFIG, ~/.kube/config, in-cluster)",
		Sources: cli.EnvVars("KUBECONFIG"),
	}
}

// parseOutputFormat extracts and validates the output format from CLI flags.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	outFormat := serializer.Format(cmd.String("format"))
	if outFormat.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, valid formats are: %s",
			outFormat, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return outFormat, nil
}

// newSerializer opens the --output destination. ConfigMap output honors
// --kubeconfig when the command defines it.
func newSerializer(cmd *cli.Command) (serializer.SerializeCloser, error) {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return nil, err
	}

	output := cmd.String("output")
	kubeconfig := ""
	if cmd.IsSet("kubeconfig") {
		kubeconfig = cmd.String("kubeconfig")
	}

	if strings.HasPrefix(output, serializer.ConfigMapURIScheme) && kubeconfig != "" {
		ns, cmName, err := serializer.ParseConfigMapURI(output)
		if err != nil {
			return nil, err
		}
		k8s, err := client.Build(kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
		}
		return serializer.NewConfigMapWriter(ns, cmName, format, serializer.WithClient(k8s)), nil
	}

	return serializer.NewFileWriterOrStdout(format, output)
}
