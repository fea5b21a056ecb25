package kubernetes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/azwaste/azwaste/internal/models"
)

func pvcFixture(ns, name string) *corev1.PersistentVolumeClaim {
	class := "managed-premium"
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			Namespace:         ns,
			CreationTimestamp: metav1.NewTime(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			StorageClassName: &class,
			VolumeName:       "pv-" + name,
			AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse("100Gi"),
				},
			},
		},
		Status: corev1.PersistentVolumeClaimStatus{Phase: corev1.ClaimBound},
	}
}

func TestCollectPVCData(t *testing.T) {
	clientset := fake.NewClientset(
		pvcFixture("workloads", "data"),
		&corev1.PersistentVolume{
			ObjectMeta: metav1.ObjectMeta{Name: "pv-data"},
			Spec: corev1.PersistentVolumeSpec{
				StorageClassName:              "managed-premium",
				PersistentVolumeReclaimPolicy: corev1.PersistentVolumeReclaimRetain,
				ClaimRef:                      &corev1.ObjectReference{Namespace: "workloads", Name: "data"},
				Capacity: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse("100Gi"),
				},
			},
			Status: corev1.PersistentVolumeStatus{Phase: corev1.VolumeBound},
		},
		&storagev1.StorageClass{
			ObjectMeta: metav1.ObjectMeta{
				Name:        "managed-premium",
				Annotations: map[string]string{"storageclass.kubernetes.io/is-default-class": "true"},
			},
			Provisioner: "disk.csi.azure.com",
		},
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "data.1", Namespace: "workloads"},
			InvolvedObject: corev1.ObjectReference{Kind: "PersistentVolumeClaim", Name: "data"},
			Reason:         "VolumeResizeFailed",
			Message:        "quota exceeded",
			Type:           corev1.EventTypeWarning,
			Count:          3,
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "app-0", Namespace: "workloads"},
			Spec: corev1.PodSpec{
				Volumes: []corev1.Volume{{
					Name: "data",
					VolumeSource: corev1.VolumeSource{
						PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
							ClaimName: "data",
						},
					},
				}},
			},
		},
	)

	info := models.ClusterInfo{ContextName: "aks-prod", Server: "https://aks-prod:443"}
	data, err := CollectPVCData(context.Background(), clientset, info, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data.ClusterInfo != info {
		t.Errorf("ClusterInfo = %+v; want %+v", data.ClusterInfo, info)
	}

	if len(data.Claims) != 1 {
		t.Fatalf("want 1 claim, got %d", len(data.Claims))
	}
	claim := data.Claims[0]
	if claim.Name != "data" || claim.Namespace != "workloads" {
		t.Errorf("claim identity = %s/%s; want workloads/data", claim.Namespace, claim.Name)
	}
	if claim.Phase != "Bound" {
		t.Errorf("Phase = %q; want Bound", claim.Phase)
	}
	if claim.StorageClassName != "managed-premium" {
		t.Errorf("StorageClassName = %q; want managed-premium", claim.StorageClassName)
	}
	if claim.VolumeName != "pv-data" {
		t.Errorf("VolumeName = %q; want pv-data", claim.VolumeName)
	}
	if claim.RequestedGiB != 100.0 {
		t.Errorf("RequestedGiB = %v; want 100 (100Gi normalised)", claim.RequestedGiB)
	}
	if len(claim.AccessModes) != 1 || claim.AccessModes[0] != "ReadWriteOnce" {
		t.Errorf("AccessModes = %v; want [ReadWriteOnce]", claim.AccessModes)
	}
	if len(claim.MountedBy) != 1 || claim.MountedBy[0] != "app-0" {
		t.Errorf("MountedBy = %v; want [app-0]", claim.MountedBy)
	}

	if len(data.Volumes) != 1 {
		t.Fatalf("want 1 volume, got %d", len(data.Volumes))
	}
	vol := data.Volumes[0]
	if vol.Name != "pv-data" || vol.Phase != "Bound" {
		t.Errorf("volume = %s/%s; want pv-data/Bound", vol.Name, vol.Phase)
	}
	if vol.ClaimRef != "workloads/data" {
		t.Errorf("ClaimRef = %q; want workloads/data", vol.ClaimRef)
	}
	if vol.CapacityGiB != 100.0 {
		t.Errorf("CapacityGiB = %v; want 100", vol.CapacityGiB)
	}
	if vol.ReclaimPolicy != "Retain" {
		t.Errorf("ReclaimPolicy = %q; want Retain", vol.ReclaimPolicy)
	}

	if len(data.StorageClasses) != 1 {
		t.Fatalf("want 1 storage class, got %d", len(data.StorageClasses))
	}
	sc := data.StorageClasses[0]
	if sc.Name != "managed-premium" || !sc.IsDefault {
		t.Errorf("storage class = %+v; want managed-premium flagged default", sc)
	}
	if sc.Provisioner != "disk.csi.azure.com" {
		t.Errorf("Provisioner = %q", sc.Provisioner)
	}

	if len(data.Events) != 1 {
		t.Fatalf("want 1 warning event, got %d", len(data.Events))
	}
	ev := data.Events[0]
	if ev.InvolvedKind != "PersistentVolumeClaim" || ev.InvolvedName != "data" {
		t.Errorf("event target = %s/%s", ev.InvolvedKind, ev.InvolvedName)
	}
	if ev.Reason != "VolumeResizeFailed" || ev.Count != 3 {
		t.Errorf("event = %+v", ev)
	}
}

func TestCollectPVCData_NamespaceFilter(t *testing.T) {
	clientset := fake.NewClientset(
		pvcFixture("workloads", "data"),
		pvcFixture("other", "scratch"),
	)

	data, err := CollectPVCData(context.Background(), clientset, models.ClusterInfo{}, "workloads")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(data.Claims) != 1 || data.Claims[0].Namespace != "workloads" {
		t.Errorf("claims = %+v; want only the workloads namespace", data.Claims)
	}
}

func TestCollectClaims_NilStorageClassName(t *testing.T) {
	pvc := pvcFixture("workloads", "data")
	pvc.Spec.StorageClassName = nil
	clientset := fake.NewClientset(pvc)

	claims, err := collectClaims(context.Background(), clientset, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("want 1 claim, got %d", len(claims))
	}
	if claims[0].StorageClassName != "" {
		t.Errorf("StorageClassName = %q; want empty for nil spec field", claims[0].StorageClassName)
	}
}

func TestCollectStorageClasses_NonDefault(t *testing.T) {
	clientset := fake.NewClientset(&storagev1.StorageClass{
		ObjectMeta:  metav1.ObjectMeta{Name: "standard-ssd"},
		Provisioner: "disk.csi.azure.com",
	})

	classes, err := collectStorageClasses(context.Background(), clientset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(classes) != 1 || classes[0].IsDefault {
		t.Errorf("classes = %+v; want one non-default class", classes)
	}
}

func TestAttachMounts_ClaimWithoutPods(t *testing.T) {
	claims := []models.ClaimInfo{{Name: "orphan", Namespace: "workloads"}}
	if err := attachMounts(context.Background(), fake.NewClientset(), "", claims); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(claims[0].MountedBy) != 0 {
		t.Errorf("MountedBy = %v; want empty", claims[0].MountedBy)
	}
}

func TestAttachMounts_IgnoresNonPVCVolumes(t *testing.T) {
	clientset := fake.NewClientset(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "app-0", Namespace: "workloads"},
		Spec: corev1.PodSpec{
			Volumes: []corev1.Volume{{
				Name:         "tmp",
				VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}},
			}},
		},
	})

	claims := []models.ClaimInfo{{Name: "data", Namespace: "workloads"}}
	if err := attachMounts(context.Background(), clientset, "", claims); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(claims[0].MountedBy) != 0 {
		t.Errorf("MountedBy = %v; want empty for emptyDir-only pods", claims[0].MountedBy)
	}
}

func TestCollectPVCData_PodListFailureAborts(t *testing.T) {
	// Without pod data every bound claim would look unmounted and the unused
	// rule would recommend deleting live storage. The collection must fail
	// instead of degrading.
	clientset := fake.NewClientset(pvcFixture("workloads", "data"))
	clientset.PrependReactor("list", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("pods is forbidden")
	})

	_, err := CollectPVCData(context.Background(), clientset, models.ClusterInfo{}, "")
	if err == nil {
		t.Fatal("expected error when pods cannot be listed")
	}
	if !strings.Contains(err.Error(), "pod mounts") {
		t.Errorf("error = %v; want the pod mount collection named", err)
	}
}

func TestQuantityGiB(t *testing.T) {
	if got := quantityGiB(resource.MustParse("5Gi")); got != 5.0 {
		t.Errorf("quantityGiB(5Gi) = %v; want 5", got)
	}
	if got := quantityGiB(resource.MustParse("512Mi")); got != 0.5 {
		t.Errorf("quantityGiB(512Mi) = %v; want 0.5", got)
	}
}
