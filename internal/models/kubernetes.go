package models

import "time"

// ClusterInfo identifies a Kubernetes cluster and the kubeconfig context used
// to connect to it.
type ClusterInfo struct {
	// ContextName is the kubeconfig context name used to connect.
	ContextName string

	// Server is the Kubernetes API server URL resolved from the kubeconfig.
	Server string
}

// ClaimInfo holds the state of one PersistentVolumeClaim.
type ClaimInfo struct {
	Name      string
	Namespace string

	// Phase is the claim phase string ("Pending", "Bound", "Lost").
	Phase string

	// StorageClassName is the requested storage class. Empty means the
	// cluster default class applies.
	StorageClassName string

	// VolumeName is the bound PV name; empty while Pending.
	VolumeName string

	// RequestedGiB is the storage request converted to GiB.
	RequestedGiB float64

	AccessModes []string

	// CreatedAt is the claim creation timestamp, used for pending-age checks.
	CreatedAt time.Time

	// MountedBy lists the names of pods that reference this claim in a
	// volume. Empty means no workload uses the claim.
	MountedBy []string
}

// VolumeInfo holds the state of one PersistentVolume.
type VolumeInfo struct {
	Name string

	// Phase is the volume phase string ("Available", "Bound", "Released", "Failed").
	Phase string

	StorageClassName string

	// ClaimRef is "namespace/name" of the bound claim, empty when unbound.
	ClaimRef string

	CapacityGiB float64

	// ReclaimPolicy is "Retain", "Delete", or "Recycle".
	ReclaimPolicy string
}

// StorageClassInfo holds basic StorageClass metadata.
type StorageClassInfo struct {
	Name        string
	Provisioner string

	// IsDefault is true when the class carries the default-class annotation.
	IsDefault bool
}

// EventInfo is a warning event involving a storage object.
type EventInfo struct {
	Namespace    string
	InvolvedKind string
	InvolvedName string
	Reason       string
	Message      string
	Type         string
	Count        int32
	LastSeen     time.Time
}

// PVCClusterData is the storage inventory collected from a single cluster.
// It is the Kubernetes equivalent of SubscriptionData and is the input to
// the pvc-health rules.
type PVCClusterData struct {
	ClusterInfo    ClusterInfo
	Claims         []ClaimInfo
	Volumes        []VolumeInfo
	StorageClasses []StorageClassInfo
	Events         []EventInfo
}
