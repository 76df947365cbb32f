package membership

import (
	"context"

	"carecircle-activity-svc/src/internal/cache"

	"github.com/sirupsen/logrus"
)

// Service answers membership questions, reading through the cache.
type Service interface {
	IsMember(ctx context.Context, groupAddress, memberAddress string) (bool, error)
	Join(ctx context.Context, groupAddress, memberAddress string) error
	Leave(ctx context.Context, groupAddress, memberAddress string) error
}

type membershipService struct {
	repo  Repository
	cache cache.Service
}

func NewMembershipService(repo Repository, cacheService cache.Service) Service {
	return &membershipService{repo: repo, cache: cacheService}
}

func (s *membershipService) IsMember(ctx context.Context, groupAddress, memberAddress string) (bool, error) {
	if groupAddress == "" || memberAddress == "" {
		return false, nil
	}

	cached, err := s.cache.GetMembership(ctx, groupAddress, memberAddress)
	if err == nil && cached != nil {
		return *cached, nil
	}

	isMember, err := s.repo.IsMember(ctx, groupAddress, memberAddress)
	if err != nil {
		return false, err
	}

	if err := s.cache.SaveMembership(ctx, groupAddress, memberAddress, isMember); err != nil {
		logrus.WithError(err).Warn("Failed to cache membership lookup")
	}
	return isMember, nil
}

func (s *membershipService) Join(ctx context.Context, groupAddress, memberAddress string) error {
	return s.update(ctx, groupAddress, memberAddress, true)
}

func (s *membershipService) Leave(ctx context.Context, groupAddress, memberAddress string) error {
	return s.update(ctx, groupAddress, memberAddress, false)
}

func (s *membershipService) update(ctx context.Context, groupAddress, memberAddress string, active bool) error {
	var err error
	if active {
		err = s.repo.Join(ctx, groupAddress, memberAddress)
	} else {
		err = s.repo.Leave(ctx, groupAddress, memberAddress)
	}
	if err != nil {
		return err
	}

	if err := s.cache.SaveMembership(ctx, groupAddress, memberAddress, active); err != nil {
		logrus.WithError(err).Warn("Failed to refresh cached membership")
	}

	logrus.WithFields(logrus.Fields{
		"group":  groupAddress,
		"member": memberAddress,
		"active": active,
	}).Info("Membership updated")
	return nil
}
