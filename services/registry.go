package services

import (
	"sync"

	"thesis-supervision-api/config"
)

// Process-wide service instances. The supervision service must be shared
// across requests, its per-thesis locks are what serialize concurrent
// submits and reviews.
var (
	registryOnce   sync.Once
	supervisionSvc *SupervisionService
	progressSvc    *ProgressService
	querySvc       *QueryService
	objectStore    *ObjectStore
)

func initRegistry() {
	registryOnce.Do(func() {
		supervisionSvc = NewSupervisionService(config.DB, NewNotificationService(config.DB))
		progressSvc = NewProgressService(config.DB)
		querySvc = NewQueryService(config.DB)
		objectStore = NewObjectStore(config.MinioClient, config.MinioBucket)
	})
}

func Supervision() *SupervisionService {
	initRegistry()
	return supervisionSvc
}

func Progress() *ProgressService {
	initRegistry()
	return progressSvc
}

func Query() *QueryService {
	initRegistry()
	return querySvc
}

func Store() *ObjectStore {
	initRegistry()
	return objectStore
}
