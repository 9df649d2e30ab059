package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/treydock/puppet-subscription-manager/pkg/k8s/client"
)

const (
	managedByLabel    = "app.kubernetes.io/managed-by"
	managedByValue    = "rhsmctl"
	updatedAnnotation = "rhsm.redhat.com/updated"
)

// ParseConfigMapURI splits cm://namespace/name.
func ParseConfigMapURI(uri string) (namespace, name string, err error) {
	rest := strings.TrimPrefix(uri, ConfigMapURIScheme)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI %q: expected %snamespace/name", uri, ConfigMapURIScheme)
	}
	return parts[0], parts[1], nil
}

// ConfigMapDataKey is the key the serialized document is stored under.
func ConfigMapDataKey(format Format) string {
	switch format {
	case FormatYAML:
		return "data.yaml"
	case FormatTable:
		return "data.txt"
	default:
		return "data.json"
	}
}

// ConfigMapWriter stores each serialized value in a ConfigMap, creating it
// when missing.
type ConfigMapWriter struct {
	namespace string
	name      string
	format    Format
	client    kubernetes.Interface
}

// ConfigMapOption configures a ConfigMapWriter.
type ConfigMapOption func(*ConfigMapWriter)

// WithClient sets the Kubernetes client instead of discovering one.
func WithClient(c kubernetes.Interface) ConfigMapOption {
	return func(w *ConfigMapWriter) {
		w.client = c
	}
}

// NewConfigMapWriter returns a writer for namespace/name.
func NewConfigMapWriter(namespace, name string, format Format, opts ...ConfigMapOption) *ConfigMapWriter {
	if format.IsUnknown() {
		format = FormatJSON
	}
	w := &ConfigMapWriter{namespace: namespace, name: name, format: format}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Serialize writes data into the ConfigMap.
func (w *ConfigMapWriter) Serialize(ctx context.Context, data any) error {
	b, err := Encode(w.format, data)
	if err != nil {
		return err
	}

	if w.client == nil {
		c, err := client.Get()
		if err != nil {
			return fmt.Errorf("failed to get kubernetes client: %w", err)
		}
		w.client = c
	}

	cms := w.client.CoreV1().ConfigMaps(w.namespace)
	key := ConfigMapDataKey(w.format)
	now := time.Now().UTC().Format(time.RFC3339)

	existing, err := cms.Get(ctx, w.name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:        w.name,
				Namespace:   w.namespace,
				Labels:      map[string]string{managedByLabel: managedByValue},
				Annotations: map[string]string{updatedAnnotation: now},
			},
			Data: map[string]string{key: string(b)},
		}
		if _, err := cms.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create ConfigMap %s/%s: %w", w.namespace, w.name, err)
		}
		slog.Debug("created configmap", slog.String("namespace", w.namespace), slog.String("name", w.name))
		return nil

	case err != nil:
		return fmt.Errorf("failed to get ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}

	updated := existing.DeepCopy()
	if updated.Data == nil {
		updated.Data = map[string]string{}
	}
	if updated.Annotations == nil {
		updated.Annotations = map[string]string{}
	}
	updated.Data[key] = string(b)
	updated.Annotations[updatedAnnotation] = now

	if _, err := cms.Update(ctx, updated, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	slog.Debug("updated configmap", slog.String("namespace", w.namespace), slog.String("name", w.name))
	return nil
}

// Close is a no-op.
func (w *ConfigMapWriter) Close() error {
	return nil
}
