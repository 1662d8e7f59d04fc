package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pulumi/pulumi-digitalocean/sdk/v4/go/digitalocean"
	"github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes"
	appsv1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/apps/v1"
	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	metav1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/meta/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

const appPort = 8080

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		cfg := config.New(ctx, "")
		region := getOr(cfg, "region", "fra1")
		nodeSize := getOr(cfg, "nodeSize", "s-2vcpu-4gb")
		environment := getOr(cfg, "environment", "production")
		image := getOr(cfg, "image", "registry.digitalocean.com/eventease/web:latest")

		nodeCount := cfg.GetInt("nodeCount")
		if nodeCount == 0 {
			nodeCount = 2
		}
		replicas := cfg.GetInt("replicas")
		if replicas == 0 {
			replicas = 2
		}

		vpc, err := digitalocean.NewVpc(ctx, "eventease-vpc", &digitalocean.VpcArgs{
			Name:    pulumi.String("eventease-vpc"),
			Region:  pulumi.String(region),
			IpRange: pulumi.String("10.20.0.0/16"),
		})
		if err != nil {
			return err
		}

		cluster, err := digitalocean.NewKubernetesCluster(ctx, "eventease-cluster", &digitalocean.KubernetesClusterArgs{
			Name:    pulumi.String("eventease-cluster"),
			Region:  pulumi.String(region),
			Version: pulumi.String("1.31.9-do.2"),
			VpcUuid: vpc.ID(),
			NodePool: &digitalocean.KubernetesClusterNodePoolArgs{
				Name:      pulumi.String("default"),
				Size:      pulumi.String(nodeSize),
				NodeCount: pulumi.Int(nodeCount),
			},
		})
		if err != nil {
			return err
		}

		// Venues, events and bookings
		database, err := digitalocean.NewDatabaseCluster(ctx, "eventease-postgres", &digitalocean.DatabaseClusterArgs{
			Name:               pulumi.String("eventease-postgres"),
			Engine:             pulumi.String("pg"),
			Version:            pulumi.String("15"),
			Size:               pulumi.String("db-s-1vcpu-1gb"),
			Region:             pulumi.String(region),
			NodeCount:          pulumi.Int(1),
			PrivateNetworkUuid: vpc.ID(),
		})
		if err != nil {
			return err
		}

		// Flash messages
		valkeyCluster, err := digitalocean.NewDatabaseCluster(ctx, "eventease-valkey", &digitalocean.DatabaseClusterArgs{
			Name:               pulumi.String("eventease-valkey"),
			Engine:             pulumi.String("valkey"),
			Version:            pulumi.String("8"),
			Size:               pulumi.String("db-s-1vcpu-1gb"),
			Region:             pulumi.String(region),
			NodeCount:          pulumi.Int(1),
			PrivateNetworkUuid: vpc.ID(),
		})
		if err != nil {
			return err
		}

		// Booking lifecycle events
		kafkaCluster, err := digitalocean.NewDatabaseCluster(ctx, "eventease-kafka", &digitalocean.DatabaseClusterArgs{
			Name:               pulumi.String("eventease-kafka"),
			Engine:             pulumi.String("kafka"),
			Version:            pulumi.String("3.8"),
			Size:               pulumi.String("db-s-2vcpu-2gb"),
			Region:             pulumi.String(region),
			NodeCount:          pulumi.Int(3),
			PrivateNetworkUuid: vpc.ID(),
		})
		if err != nil {
			return err
		}

		k8sProvider, err := kubernetes.NewProvider(ctx, "k8s-provider", &kubernetes.ProviderArgs{
			Kubeconfig: cluster.KubeConfigs.Index(pulumi.Int(0)).RawConfig(),
		})
		if err != nil {
			return err
		}

		namespace, err := corev1.NewNamespace(ctx, "eventease-namespace", &corev1.NamespaceArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name: pulumi.String("eventease"),
			},
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		// Keys match the env tags of the application config
		configMap, err := corev1.NewConfigMap(ctx, "eventease-config", &corev1.ConfigMapArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name:      pulumi.String("eventease-config"),
				Namespace: namespace.Metadata.Name(),
			},
			Data: pulumi.StringMap{
				"PORT":                       pulumi.Sprintf("%d", appPort),
				"APP_ENV":                    pulumi.String(environment),
				"DB_DRIVER":                  pulumi.String("postgres"),
				"DB_HOST":                    database.PrivateHost,
				"DB_PORT":                    pulumi.Sprintf("%v", database.Port),
				"DB_NAME":                    database.Database,
				"DB_USER":                    database.User,
				"DB_SSL_MODE":                pulumi.String("require"),
				"REDIS_HOST":                 valkeyCluster.PrivateHost,
				"REDIS_PORT":                 pulumi.Sprintf("%v", valkeyCluster.Port),
				"REDIS_TLS":                  pulumi.String("true"),
				"KAFKA_BROKERS":              pulumi.Sprintf("%s:%v", kafkaCluster.PrivateHost, kafkaCluster.Port),
				"KAFKA_BOOKING_EVENTS_TOPIC": pulumi.String("booking-events"),
				"KAFKA_TLS":                  pulumi.String("true"),
				"KAFKA_SASL_MECHANISM":       pulumi.String("scram-sha-256"),
				"SESSION_COOKIE_SECURE":      pulumi.String("true"),
				"CLOUDINARY_FOLDER":          pulumi.String("venue-images"),
			},
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		secret, err := corev1.NewSecret(ctx, "eventease-secret", &corev1.SecretArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name:      pulumi.String("eventease-secret"),
				Namespace: namespace.Metadata.Name(),
			},
			StringData: pulumi.StringMap{
				"DB_PASSWORD":           database.Password,
				"REDIS_PASSWORD":        valkeyCluster.Password,
				"KAFKA_USERNAME":        kafkaCluster.User,
				"KAFKA_PASSWORD":        kafkaCluster.Password,
				"SESSION_SECRET":        cfg.RequireSecret("sessionSecret"),
				"CLOUDINARY_CLOUD_NAME": pulumi.String(cfg.Get("cloudinaryCloudName")),
				"CLOUDINARY_API_KEY":    cfg.GetSecret("cloudinaryApiKey"),
				"CLOUDINARY_API_SECRET": cfg.GetSecret("cloudinaryApiSecret"),
			},
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		var dependsOn []pulumi.Resource

		// Get DigitalOcean access token for registry authentication
		accessToken := os.Getenv("DIGITALOCEAN_ACCESS_TOKEN")
		if accessToken == "" {
			accessToken = cfg.Get("digitalocean:token")
		}

		if accessToken != "" {
			dockerConfig := map[string]interface{}{
				"auths": map[string]interface{}{
					"registry.digitalocean.com": map[string]interface{}{
						"username": "dummy",
						"password": accessToken,
						"auth":     base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("dummy:%s", accessToken))),
					},
				},
			}
			configJSON, err := json.Marshal(dockerConfig)
			if err != nil {
				return err
			}

			registrySecret, err := corev1.NewSecret(ctx, "registry-secret", &corev1.SecretArgs{
				Metadata: &metav1.ObjectMetaArgs{
					Name:      pulumi.String("regcred"),
					Namespace: namespace.Metadata.Name(),
				},
				Type: pulumi.String("kubernetes.io/dockerconfigjson"),
				Data: pulumi.StringMap{
					".dockerconfigjson": pulumi.String(base64.StdEncoding.EncodeToString(configJSON)),
				},
			}, pulumi.Provider(k8sProvider))
			if err != nil {
				return err
			}

			serviceAccount, err := corev1.NewServiceAccount(ctx, "default-service-account", &corev1.ServiceAccountArgs{
				Metadata: &metav1.ObjectMetaArgs{
					Name:      pulumi.String("default"),
					Namespace: namespace.Metadata.Name(),
				},
				ImagePullSecrets: corev1.LocalObjectReferenceArray{
					&corev1.LocalObjectReferenceArgs{
						Name: registrySecret.Metadata.Name(),
					},
				},
			}, pulumi.Provider(k8sProvider), pulumi.DependsOn([]pulumi.Resource{registrySecret}))
			if err != nil {
				return err
			}
			dependsOn = append(dependsOn, serviceAccount)
		}

		labels := pulumi.StringMap{"app": pulumi.String("eventease-web")}

		_, err = appsv1.NewDeployment(ctx, "eventease-web", &appsv1.DeploymentArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name:      pulumi.String("eventease-web"),
				Namespace: namespace.Metadata.Name(),
			},
			Spec: &appsv1.DeploymentSpecArgs{
				Replicas: pulumi.Int(replicas),
				Selector: &metav1.LabelSelectorArgs{
					MatchLabels: labels,
				},
				Template: &corev1.PodTemplateSpecArgs{
					Metadata: &metav1.ObjectMetaArgs{
						Labels: labels,
					},
					Spec: &corev1.PodSpecArgs{
						Containers: corev1.ContainerArray{
							&corev1.ContainerArgs{
								Name:  pulumi.String("web"),
								Image: pulumi.String(image),
								Ports: corev1.ContainerPortArray{
									&corev1.ContainerPortArgs{
										ContainerPort: pulumi.Int(appPort),
									},
								},
								EnvFrom: corev1.EnvFromSourceArray{
									&corev1.EnvFromSourceArgs{
										ConfigMapRef: &corev1.ConfigMapEnvSourceArgs{
											Name: configMap.Metadata.Name(),
										},
									},
									&corev1.EnvFromSourceArgs{
										SecretRef: &corev1.SecretEnvSourceArgs{
											Name: secret.Metadata.Name(),
										},
									},
								},
								ReadinessProbe: &corev1.ProbeArgs{
									HttpGet: &corev1.HTTPGetActionArgs{
										Path: pulumi.String("/health"),
										Port: pulumi.Int(appPort),
									},
								},
							},
						},
					},
				},
			},
		}, pulumi.Provider(k8sProvider), pulumi.DependsOn(dependsOn))
		if err != nil {
			return err
		}

		webService, err := corev1.NewService(ctx, "eventease-web", &corev1.ServiceArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name:      pulumi.String("eventease-web"),
				Namespace: namespace.Metadata.Name(),
			},
			Spec: &corev1.ServiceSpecArgs{
				Type:     pulumi.String("LoadBalancer"),
				Selector: labels,
				Ports: corev1.ServicePortArray{
					&corev1.ServicePortArgs{
						Port:       pulumi.Int(80),
						TargetPort: pulumi.Int(appPort),
					},
				},
			},
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		ctx.Export("clusterName", cluster.Name)
		ctx.Export("kubeconfig", cluster.KubeConfigs.Index(pulumi.Int(0)).RawConfig())
		ctx.Export("databaseHost", database.Host)
		ctx.Export("redisHost", valkeyCluster.Host)
		ctx.Export("kafkaHost", kafkaCluster.Host)
		ctx.Export("vpcId", vpc.ID())
		ctx.Export("webService", webService.Metadata.Name())

		return nil
	})
}

func getOr(cfg *config.Config, key, fallback string) string {
	if value := cfg.Get(key); value != "" {
		return value
	}
	return fallback
}
