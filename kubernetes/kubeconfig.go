package kubernetes

import (
	"os"

	"github.com/dbcdk/laconicman/logging"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

var (
	log = logging.GetInstance()
)

func GetKubeConfig(kubeconfigFlag *string) (*rest.Config, error) {
	var kubeconfig string

	if kubeconfig = os.Getenv("KUBECONFIG"); kubeconfig != "" {
		log.Debug("Reading kubeconfig from environment", zap.String("path", kubeconfig))
	} else if kubeconfigFlag != nil {
		kubeconfig = *kubeconfigFlag
		log.Debug("Reading kubeconfig from flag", zap.String("path", kubeconfig))
	} else {
		log.Debug("No kubeconfig given, assuming in-cluster config")
	}

	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}

func GetKubeClient(config *rest.Config) (*kubernetes.Clientset, error) {
	clients, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, err
	}
	return clients, nil
}
