package config

import (
	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/store"
)

// Defaults returns the compiled-in baseline every loaded file overrides
// key-by-key, mirroring the teacher's "config file overrides a struct of
// sane defaults" pattern.
func Defaults() Config {
	return Config{
		Limits: store.DefaultLimits(),
		Service: ServiceConfig{
			NumberOfIOServiceThreads: 4,
			NumberOfReadBuffers:      256,
			NumberOfWriteBuffers:     256,
			MaxConnections:           256,
			ListenIPAddress:          "0.0.0.0",
			ListenPort:               8080,
			ConnectionTimeoutSeconds: 30,
			ResponsePrefix:           ")]}',\n",
		},
		Persistence: PersistenceConfig{
			InputFolder:                      "data/import",
			OutputFolder:                     "data/events",
			MessagesFile:                     "messages.log",
			ValidateChecksum:                 true,
			CreateNewOutputFileEverySeconds:  3600,
			FsyncEverySeconds:                0,
		},
		Throttle: map[authz.ActionClass]authz.ThrottleConfig{
			authz.ActionNewContent:     {MaxAllowed: 3, PeriodSeconds: 60},
			authz.ActionEditContent:    {MaxAllowed: 10, PeriodSeconds: 60},
			authz.ActionVote:           {MaxAllowed: 30, PeriodSeconds: 60},
			authz.ActionSubscribe:      {MaxAllowed: 20, PeriodSeconds: 60},
			authz.ActionEditPrivileges: {MaxAllowed: 5, PeriodSeconds: 60},
		},
		DefaultRequiredPrivileges: entities.RequiredPrivilegeTable{
			entities.PrivViewForumRoot:                      0,
			entities.PrivAddUser:                             0,
			entities.PrivLoginUser:                           0,
			entities.PrivViewDiscussionThreadMessage:         0,
			entities.PrivAddNewDiscussionThread:              1,
			entities.PrivAddNewDiscussionThreadMessage:       1,
			entities.PrivEditDiscussionThreadMessageContent:  1,
			entities.PrivDeleteDiscussionThreadMessage:       2,
			entities.PrivMoveDiscussionThreadMessage:         2,
			entities.PrivUpVote:                              1,
			entities.PrivDownVote:                            1,
			entities.PrivResetVote:                           1,
			entities.PrivAddComment:                          1,
			entities.PrivSetCommentToSolved:                  1,
			entities.PrivSubscribeToThread:                   1,
			entities.PrivUnsubscribeFromThread:                1,
			entities.PrivMergeDiscussionThreads:              3,
			entities.PrivAdjustPrivilege:                     3,
			entities.PrivEditDiscussionThread:                2,
			entities.PrivDeleteDiscussionThread:              2,
			entities.PrivAttachTagToThread:                   2,
			entities.PrivDetachTagFromThread:                 2,
			entities.PrivAddNewDiscussionTag:                 2,
			entities.PrivEditDiscussionTag:                   2,
			entities.PrivDeleteDiscussionTag:                 3,
			entities.PrivAddNewDiscussionCategory:            3,
			entities.PrivEditDiscussionCategory:              3,
			entities.PrivDeleteDiscussionCategory:            3,
			entities.PrivDeleteComment:                       2,
			entities.PrivEditDiscussionCategoryDisplayOrder:  3,
			entities.PrivAttachTagToCategory:                 3,
			entities.PrivDetachTagFromCategory:               3,
		},
	}
}
