package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/services"
)

const petDecaySchedule = "@every 1h"

// PetDecayJob periodically lowers every pet's happiness and energy so that
// companions need ongoing care.
type PetDecayJob struct {
	log  *logger.Logger
	pets services.PetService
	cron *cron.Cron
}

func NewPetDecayJob(baseLog *logger.Logger, petService services.PetService) *PetDecayJob {
	return &PetDecayJob{
		log:  baseLog.With("job", "PetDecayJob"),
		pets: petService,
		cron: cron.New(),
	}
}

func (j *PetDecayJob) Start() error {
	err := j.cron.AddFunc(petDecaySchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := j.pets.Decay(ctx); err != nil {
			j.log.Error("pet decay run failed", "error", err)
			return
		}
		j.log.Debug("pet decay run complete")
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info("pet decay job scheduled", "schedule", petDecaySchedule)
	return nil
}

func (j *PetDecayJob) Stop() {
	j.cron.Stop()
}
