// Package kubernetes collects the storage inventory (claims, volumes, storage
// classes, warning events) that the pvc-health rules evaluate. It must not
// apply business rules; rule evaluation happens in internal/rules.
package kubernetes

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	k8sclient "k8s.io/client-go/kubernetes"

	"github.com/azwaste/azwaste/internal/models"
)

// defaultClassAnnotation marks a StorageClass as the cluster default.
const defaultClassAnnotation = "storageclass.kubernetes.io/is-default-class"

// CollectPVCData collects claims, volumes, storage classes, and warning events
// from the cluster and attaches the resolved ClusterInfo to the result.
//
// All collections are attempted; an error from any aborts the collection.
// The clientset parameter is an interface so tests can inject a fake clientset.
// Pass an empty namespace to collect claims and events cluster-wide.
func CollectPVCData(ctx context.Context, clientset k8sclient.Interface, info models.ClusterInfo, namespace string) (*models.PVCClusterData, error) {
	claims, err := collectClaims(ctx, clientset, namespace)
	if err != nil {
		return nil, fmt.Errorf("collect persistent volume claims: %w", err)
	}

	volumes, err := collectVolumes(ctx, clientset)
	if err != nil {
		return nil, fmt.Errorf("collect persistent volumes: %w", err)
	}

	classes, err := collectStorageClasses(ctx, clientset)
	if err != nil {
		return nil, fmt.Errorf("collect storage classes: %w", err)
	}

	events, err := collectWarningEvents(ctx, clientset, namespace)
	if err != nil {
		return nil, fmt.Errorf("collect warning events: %w", err)
	}

	if err := attachMounts(ctx, clientset, namespace, claims); err != nil {
		return nil, fmt.Errorf("collect pod mounts: %w", err)
	}

	return &models.PVCClusterData{
		ClusterInfo:    info,
		Claims:         claims,
		Volumes:        volumes,
		StorageClasses: classes,
		Events:         events,
	}, nil
}

// collectClaims lists PVCs in the namespace (all namespaces when empty) and
// converts them to ClaimInfo. Storage requests are normalised to GiB.
func collectClaims(ctx context.Context, clientset k8sclient.Interface, namespace string) ([]models.ClaimInfo, error) {
	pvcList, err := clientset.CoreV1().PersistentVolumeClaims(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	claims := make([]models.ClaimInfo, 0, len(pvcList.Items))
	for _, pvc := range pvcList.Items {
		claim := models.ClaimInfo{
			Name:       pvc.Name,
			Namespace:  pvc.Namespace,
			Phase:      string(pvc.Status.Phase),
			VolumeName: pvc.Spec.VolumeName,
			CreatedAt:  pvc.CreationTimestamp.Time,
		}
		if pvc.Spec.StorageClassName != nil {
			claim.StorageClassName = *pvc.Spec.StorageClassName
		}
		if req, ok := pvc.Spec.Resources.Requests[corev1.ResourceStorage]; ok {
			claim.RequestedGiB = quantityGiB(req)
		}
		for _, mode := range pvc.Spec.AccessModes {
			claim.AccessModes = append(claim.AccessModes, string(mode))
		}
		claims = append(claims, claim)
	}
	return claims, nil
}

// collectVolumes lists all PVs and converts them to VolumeInfo.
// PVs are cluster-scoped, so no namespace filter applies.
func collectVolumes(ctx context.Context, clientset k8sclient.Interface) ([]models.VolumeInfo, error) {
	pvList, err := clientset.CoreV1().PersistentVolumes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	volumes := make([]models.VolumeInfo, 0, len(pvList.Items))
	for _, pv := range pvList.Items {
		volume := models.VolumeInfo{
			Name:             pv.Name,
			Phase:            string(pv.Status.Phase),
			StorageClassName: pv.Spec.StorageClassName,
			ReclaimPolicy:    string(pv.Spec.PersistentVolumeReclaimPolicy),
		}
		if pv.Spec.ClaimRef != nil {
			volume.ClaimRef = pv.Spec.ClaimRef.Namespace + "/" + pv.Spec.ClaimRef.Name
		}
		if cap, ok := pv.Spec.Capacity[corev1.ResourceStorage]; ok {
			volume.CapacityGiB = quantityGiB(cap)
		}
		volumes = append(volumes, volume)
	}
	return volumes, nil
}

// collectStorageClasses lists all StorageClasses and records which one carries
// the default-class annotation.
func collectStorageClasses(ctx context.Context, clientset k8sclient.Interface) ([]models.StorageClassInfo, error) {
	scList, err := clientset.StorageV1().StorageClasses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	classes := make([]models.StorageClassInfo, 0, len(scList.Items))
	for _, sc := range scList.Items {
		classes = append(classes, models.StorageClassInfo{
			Name:        sc.Name,
			Provisioner: sc.Provisioner,
			IsDefault:   sc.Annotations[defaultClassAnnotation] == "true",
		})
	}
	return classes, nil
}

// collectWarningEvents lists Warning events in the namespace (all namespaces
// when empty) and converts them to EventInfo. Normal events carry no failure
// signal and are filtered server-side.
func collectWarningEvents(ctx context.Context, clientset k8sclient.Interface, namespace string) ([]models.EventInfo, error) {
	evList, err := clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: "type=Warning",
	})
	if err != nil {
		return nil, err
	}

	events := make([]models.EventInfo, 0, len(evList.Items))
	for _, ev := range evList.Items {
		events = append(events, models.EventInfo{
			Namespace:    ev.Namespace,
			InvolvedKind: ev.InvolvedObject.Kind,
			InvolvedName: ev.InvolvedObject.Name,
			Reason:       ev.Reason,
			Message:      ev.Message,
			Type:         ev.Type,
			Count:        ev.Count,
			LastSeen:     ev.LastTimestamp.Time,
		})
	}
	return events, nil
}

// attachMounts lists pods and records which ones reference each claim in a
// volume. A pod-list failure aborts the collection: empty mount data would
// make every bound claim look unused and the unused rule recommends deletion.
func attachMounts(ctx context.Context, clientset k8sclient.Interface, namespace string, claims []models.ClaimInfo) error {
	podList, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}

	mounts := make(map[string][]string)
	for _, pod := range podList.Items {
		for _, vol := range pod.Spec.Volumes {
			if vol.PersistentVolumeClaim == nil {
				continue
			}
			key := pod.Namespace + "/" + vol.PersistentVolumeClaim.ClaimName
			mounts[key] = append(mounts[key], pod.Name)
		}
	}

	for i := range claims {
		claims[i].MountedBy = mounts[claims[i].Namespace+"/"+claims[i].Name]
	}
	return nil
}

// quantityGiB converts a Kubernetes quantity to GiB.
func quantityGiB(q resource.Quantity) float64 {
	return float64(q.Value()) / (1024 * 1024 * 1024)
}
