package serializer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestParseConfigMapURI(t *testing.T) {
	ns, name, err := ParseConfigMapURI("cm://rhsm/host-facts")
	require.NoError(t, err)
	assert.Equal(t, "rhsm", ns)
	assert.Equal(t, "host-facts", name)
}

func TestConfigMapWriter_Creates(t *testing.T) {
	clientset := fake.NewClientset()
	w := NewConfigMapWriter("rhsm", "facts", FormatYAML, WithClient(clientset))

	require.NoError(t, w.Serialize(context.Background(), testFacts()))

	cm, err := clientset.CoreV1().ConfigMaps("rhsm").Get(context.Background(), "facts", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, managedByValue, cm.Labels[managedByLabel])
	assert.NotEmpty(t, cm.Annotations[updatedAnnotation])
	assert.Contains(t, cm.Data["data.yaml"], "rhel-7-server-rpms")
	assert.NoError(t, w.Close())
}

func TestConfigMapWriter_UpdatesAndKeepsOtherKeys(t *testing.T) {
	existing := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "facts", Namespace: "rhsm"},
		Data:       map[string]string{"other": "kept", "data.json": "old"},
	}
	clientset := fake.NewClientset(existing)
	w := NewConfigMapWriter("rhsm", "facts", FormatJSON, WithClient(clientset))

	require.NoError(t, w.Serialize(context.Background(), testFacts()))

	cm, err := clientset.CoreV1().ConfigMaps("rhsm").Get(context.Background(), "facts", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "kept", cm.Data["other"])
	assert.True(t, strings.HasPrefix(cm.Data["data.json"], "["))
	assert.NotEmpty(t, cm.Annotations[updatedAnnotation])
}

func TestConfigMapDataKey(t *testing.T) {
	assert.Equal(t, "data.json", ConfigMapDataKey(FormatJSON))
	assert.Equal(t, "data.yaml", ConfigMapDataKey(FormatYAML))
	assert.Equal(t, "data.txt", ConfigMapDataKey(FormatTable))
}
