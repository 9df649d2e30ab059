// Package client builds the Kubernetes client used to publish fact
// snapshots and pool listings as ConfigMaps.
package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

var (
	once      sync.Once
	shared    kubernetes.Interface
	sharedErr error
)

// Get returns a process wide client, built on first use from the default
// kubeconfig discovery (see Build).
func Get() (kubernetes.Interface, error) {
	once.Do(func() {
		shared, sharedErr = Build("")
	})
	return shared, sharedErr
}

// Build creates a client from kubeconfig. An empty path tries $KUBECONFIG,
// then ~/.kube/config, then the in-cluster service account.
func Build(kubeconfig string) (kubernetes.Interface, error) {
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	if kubeconfig == "" {
		home := filepath.Join(homedir.HomeDir(), ".kube", "config")
		if _, err := os.Stat(home); err == nil {
			kubeconfig = home
		}
	}

	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build kube config: %w", err)
	}
	cfg.UserAgent = "rhsmctl"

	c, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return c, nil
}
